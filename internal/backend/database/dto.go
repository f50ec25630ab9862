package database

// NewImage carries the columns of an image row that callers choose.
type NewImage struct {
	OwnerID     int64
	IsMain      bool
	ImageURL    string
	ImageData   []byte
	ContentType string
	Description *string
}

// ImageChanges lists the mutable columns; nil fields stay unchanged.
type ImageChanges struct {
	Description *string
	IsMain      *bool
}
