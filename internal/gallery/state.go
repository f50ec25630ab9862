package gallery

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/jo-hoe/gardengallery/internal/imageservice"
)

// File is a local file reference staged for upload.
type File = imageservice.UploadFile

// FileFromPath references a file on disk; it is opened only when the batch
// request is built.
func FileFromPath(path string) File {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	return File{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// State is a snapshot of one owner's gallery.
type State struct {
	OwnerID        int64
	Images         []imageservice.Image
	Main           *imageservice.Image
	PendingUploads []File
	SelectedIndex  int
	IsLoading      bool
	IsUploading    bool
	UploadProgress int
	LastError      error
	LastBatch      *imageservice.BatchUploadResult
}

// Selected returns the image under the cursor.
func (s State) Selected() (imageservice.Image, bool) {
	if len(s.Images) == 0 {
		return imageservice.Image{}, false
	}
	return s.Images[ClampIndex(s.SelectedIndex, len(s.Images))], true
}

func (s State) clone() State {
	out := s
	out.Images = append([]imageservice.Image(nil), s.Images...)
	out.PendingUploads = append([]File(nil), s.PendingUploads...)
	if s.Main != nil {
		main := *s.Main
		out.Main = &main
	}
	if s.LastBatch != nil {
		batch := *s.LastBatch
		batch.ErrorMessages = append([]string(nil), s.LastBatch.ErrorMessages...)
		batch.CreatedIDs = append([]int64(nil), s.LastBatch.CreatedIDs...)
		out.LastBatch = &batch
	}
	return out
}

// PartialUploadError reports the files of a batch that were not attached.
// The images that did upload stay attached.
type PartialUploadError struct {
	Result imageservice.BatchUploadResult
}

func (e *PartialUploadError) Error() string {
	return e.Result.Summary()
}

func mainOf(images []imageservice.Image) *imageservice.Image {
	for _, image := range images {
		if image.IsMain {
			image := image
			return &image
		}
	}
	return nil
}

func indexOf(images []imageservice.Image, id int64) int {
	for i, image := range images {
		if image.ID == id {
			return i
		}
	}
	return -1
}

func recoveredError(operation string, recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("%s: unexpected failure: %w", operation, err)
	}
	return fmt.Errorf("%s: unexpected failure: %v", operation, recovered)
}
