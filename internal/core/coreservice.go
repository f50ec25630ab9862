package core

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jo-hoe/gardengallery/internal/backend/database"
	"github.com/jo-hoe/gardengallery/internal/imageservice"
)

var (
	ErrNotFound     = database.ErrNotFound
	ErrInvalidImage = errors.New("invalid image")
)

// UploadedFile is one file part of a batch upload.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// CoreService owns the image rows of all owners and enforces the single main
// image per owner.
type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
}

func NewCoreService(config *ServiceConfig) *CoreService {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		slog.Error("failed to initialize database service", "error", err)
		panic(err)
	}
	return &CoreService{
		config:          config,
		databaseService: databaseService,
	}
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

func (service *CoreService) ListImages(ownerID int64, includeData bool) ([]imageservice.Image, error) {
	rows, err := service.databaseService.GetImagesByOwner(ownerID, includeData)
	if err != nil {
		return nil, fmt.Errorf("failed to list images of owner %d: %w", ownerID, err)
	}
	images := make([]imageservice.Image, 0, len(rows))
	for _, row := range rows {
		images = append(images, toImage(row))
	}
	return images, nil
}

func (service *CoreService) GetMainImage(ownerID int64, includeData bool) (imageservice.Image, error) {
	row, err := service.databaseService.GetMainImage(ownerID, includeData)
	if err != nil {
		return imageservice.Image{}, err
	}
	return toImage(row), nil
}

func (service *CoreService) GetImage(id int64) (imageservice.Image, error) {
	row, err := service.databaseService.GetImageByID(id, true)
	if err != nil {
		return imageservice.Image{}, err
	}
	return toImage(row), nil
}

// AddImage stores a single image given either by URL or as base64 payload.
func (service *CoreService) AddImage(image imageservice.NewImage) (imageservice.Image, error) {
	row := database.NewImage{
		OwnerID:     image.OwnerID,
		IsMain:      image.IsMain,
		Description: image.Description,
	}
	switch {
	case image.ImageURL != "" && image.ImageData != "":
		return imageservice.Image{}, fmt.Errorf("%w: imageUrl and imageData are mutually exclusive", ErrInvalidImage)
	case image.ImageURL != "":
		if parsed, err := url.ParseRequestURI(image.ImageURL); err != nil || parsed.Host == "" {
			return imageservice.Image{}, fmt.Errorf("%w: imageUrl is not an absolute URL", ErrInvalidImage)
		}
		row.ImageURL = image.ImageURL
	case image.ImageData != "":
		data, err := base64.StdEncoding.DecodeString(image.ImageData)
		if err != nil {
			return imageservice.Image{}, fmt.Errorf("%w: imageData is not base64: %v", ErrInvalidImage, err)
		}
		contentType, err := detectContentType(data, image.ContentType)
		if err != nil {
			return imageservice.Image{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		row.ImageData = data
		row.ContentType = contentType
	default:
		return imageservice.Image{}, fmt.Errorf("%w: imageUrl or imageData is required", ErrInvalidImage)
	}

	created, err := service.databaseService.CreateImage(row)
	if err != nil {
		return imageservice.Image{}, fmt.Errorf("failed to store image: %w", err)
	}
	slog.Info("image added", "owner_id", created.OwnerID, "image_id", created.ID, "is_main", created.IsMain)
	return toImage(created), nil
}

func (service *CoreService) UpdateImage(id int64, update imageservice.ImageUpdate) (imageservice.Image, error) {
	row, err := service.databaseService.UpdateImage(id, database.ImageChanges{
		Description: update.Description,
		IsMain:      update.IsMain,
	})
	if err != nil {
		return imageservice.Image{}, err
	}
	return toImage(row), nil
}

func (service *CoreService) SetMainImage(id int64) (imageservice.Image, error) {
	row, err := service.databaseService.SetMainImage(id)
	if err != nil {
		return imageservice.Image{}, err
	}
	slog.Info("main image set", "owner_id", row.OwnerID, "image_id", row.ID)
	return toImage(row), nil
}

func (service *CoreService) DeleteImage(id int64) error {
	if err := service.databaseService.DeleteImage(id); err != nil {
		return err
	}
	slog.Info("image deleted", "image_id", id)
	return nil
}

// BatchUpload validates and stores each file independently. Valid files are
// persisted even when others fail. With isMain every stored file becomes main
// in turn, so the last stored file of the batch ends up main.
func (service *CoreService) BatchUpload(ownerID int64, isMain bool, files []UploadedFile) imageservice.BatchUploadResult {
	result := imageservice.BatchUploadResult{
		ErrorMessages: []string{},
		CreatedIDs:    []int64{},
	}
	for _, file := range files {
		contentType, err := detectContentType(file.Data, file.ContentType)
		if err != nil {
			result.ErrorCount++
			result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("%s: %v", file.Name, err))
			slog.Warn("batch upload: rejected file", "owner_id", ownerID, "filename", file.Name, "error", err)
			continue
		}
		created, err := service.databaseService.CreateImage(database.NewImage{
			OwnerID:     ownerID,
			IsMain:      isMain,
			ImageData:   file.Data,
			ContentType: contentType,
		})
		if err != nil {
			result.ErrorCount++
			result.ErrorMessages = append(result.ErrorMessages, fmt.Sprintf("%s: failed to store image", file.Name))
			slog.Error("batch upload: failed to store file", "owner_id", ownerID, "filename", file.Name, "error", err)
			continue
		}
		result.SuccessCount++
		result.CreatedIDs = append(result.CreatedIDs, created.ID)
	}
	slog.Info("batch upload processed", "owner_id", ownerID,
		"success_count", result.SuccessCount, "error_count", result.ErrorCount)
	return result
}

func toImage(row *database.Image) imageservice.Image {
	image := imageservice.Image{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		IsMain:      row.IsMain,
		ImageURL:    row.ImageURL,
		ContentType: row.ContentType,
		Description: row.Description,
	}
	if len(row.ImageData) > 0 {
		image.ImageData = base64.StdEncoding.EncodeToString(row.ImageData)
	}
	return image
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Database.Type)
	return databaseService, nil
}
