package imageservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jo-hoe/gardengallery/internal/transport"
)

// Doer is the transport surface the service needs.
type Doer interface {
	Do(ctx context.Context, request transport.Request) transport.Response
}

// Service maps image operations onto transport calls. Expected failures are
// returned as *transport.Error; an undecodable body is KindMalformed.
type Service struct {
	doer             Doer
	includeImageData bool
}

func NewService(doer Doer, includeImageData bool) *Service {
	return &Service{doer: doer, includeImageData: includeImageData}
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]Image, error) {
	response := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/images/by-owner/%d", ownerID),
		Query:  s.imageDataQuery(),
	})
	if response.Err != nil {
		return nil, response.Err
	}
	images := []Image{}
	if err := decode(response, &images); err != nil {
		return nil, err
	}
	return images, nil
}

// GetMain returns the owner's main image, or nil when the owner has none.
func (s *Service) GetMain(ctx context.Context, ownerID int64) (*Image, error) {
	response := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/images/by-owner/%d/main", ownerID),
		Query:  s.imageDataQuery(),
	})
	if response.Status == http.StatusNotFound {
		return nil, nil
	}
	if response.Err != nil {
		return nil, response.Err
	}
	var image Image
	if err := decode(response, &image); err != nil {
		return nil, err
	}
	return &image, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Image, error) {
	response := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/images/%d", id),
	})
	if response.Err != nil {
		return Image{}, response.Err
	}
	var image Image
	err := decode(response, &image)
	return image, err
}

func (s *Service) Add(ctx context.Context, image NewImage) (Image, error) {
	return s.sendJSON(ctx, http.MethodPost, "/images", image)
}

func (s *Service) Update(ctx context.Context, id int64, update ImageUpdate) (Image, error) {
	return s.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/images/%d", id), update)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	response := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("/images/%d", id),
	})
	return response.Err
}

// SetAsMain asks the server to flag the image as main; the server clears the
// owner's previous main image.
func (s *Service) SetAsMain(ctx context.Context, id int64) error {
	response := s.doer.Do(ctx, transport.Request{
		Method:      http.MethodPut,
		Path:        fmt.Sprintf("/images/%d/set-as-main", id),
		Body:        []byte("{}"),
		ContentType: "application/json",
	})
	return response.Err
}

// BatchUpload submits all files in one multipart request. isMain applies to
// the whole batch.
func (s *Service) BatchUpload(ctx context.Context, ownerID int64, isMain bool, files []UploadFile, progress transport.ProgressFunc) (BatchUploadResult, error) {
	body, contentType, err := buildBatchBody(ownerID, isMain, files)
	if err != nil {
		return BatchUploadResult{}, err
	}
	slog.Debug("ImageService: submitting batch upload",
		"owner_id", ownerID, "files", len(files), "is_main", isMain, "body_bytes", len(body))

	response := s.doer.Do(ctx, transport.Request{
		Method:      http.MethodPost,
		Path:        "/images/batch-upload",
		Body:        body,
		ContentType: contentType,
		Progress:    progress,
	})
	if response.Err != nil {
		return BatchUploadResult{}, response.Err
	}
	var result BatchUploadResult
	if err := decode(response, &result); err != nil {
		return BatchUploadResult{}, err
	}
	return result, nil
}

func (s *Service) sendJSON(ctx context.Context, method, path string, payload any) (Image, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Image{}, fmt.Errorf("failed to encode request body: %w", err)
	}
	response := s.doer.Do(ctx, transport.Request{
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	})
	if response.Err != nil {
		return Image{}, response.Err
	}
	var image Image
	err = decode(response, &image)
	return image, err
}

func (s *Service) imageDataQuery() url.Values {
	return url.Values{"includeImageData": []string{strconv.FormatBool(s.includeImageData)}}
}

func decode(response transport.Response, target any) error {
	if err := json.Unmarshal(response.Body, target); err != nil {
		return transport.Malformed(response.Status, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}
