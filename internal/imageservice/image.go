package imageservice

import (
	"fmt"
	"io"
	"strings"
)

// Image is one photograph attached to an owning record (a specimen).
// Content is either ImageURL or ImageData+ContentType.
type Image struct {
	ID          int64   `json:"id"`
	OwnerID     int64   `json:"ownerId"`
	IsMain      bool    `json:"isMain"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	ImageData   string  `json:"imageData,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Description *string `json:"description,omitempty"`
}

// DisplayURI derives a URI a viewer can render from whichever content is present.
func (i Image) DisplayURI() string {
	if i.ImageURL != "" {
		return i.ImageURL
	}
	if i.ImageData != "" {
		contentType := i.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return fmt.Sprintf("data:%s;base64,%s", contentType, i.ImageData)
	}
	return ""
}

// NewImage is the body of a single-image add.
type NewImage struct {
	OwnerID     int64   `json:"ownerId"`
	IsMain      bool    `json:"isMain"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	ImageData   string  `json:"imageData,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ImageUpdate carries the mutable fields of an image; nil fields are left unchanged.
type ImageUpdate struct {
	Description *string `json:"description,omitempty"`
	IsMain      *bool   `json:"isMain,omitempty"`
}

// UploadFile is an opaque local file reference attachable to a multipart request.
type UploadFile struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// BatchUploadResult is the outcome of one batch upload call.
type BatchUploadResult struct {
	SuccessCount  int      `json:"successCount"`
	ErrorCount    int      `json:"errorCount"`
	ErrorMessages []string `json:"errorMessages"`
	CreatedIDs    []int64  `json:"createdIds"`
}

// Partial reports whether some files were attached and some were not.
func (r BatchUploadResult) Partial() bool {
	return r.SuccessCount > 0 && r.ErrorCount > 0
}

// Summary is an aggregate, user-facing message. It is empty when nothing failed.
func (r BatchUploadResult) Summary() string {
	if r.ErrorCount == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d images failed to upload", r.ErrorCount, r.SuccessCount+r.ErrorCount)
	if len(r.ErrorMessages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(r.ErrorMessages, "; "))
	}
	return b.String()
}

func StringPtr(s string) *string {
	return &s
}

func BoolPtr(b bool) *bool {
	return &b
}
