package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/jo-hoe/gardengallery/internal/common"
	"github.com/jo-hoe/gardengallery/internal/core"
	"github.com/jo-hoe/gardengallery/internal/imageservice"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const ProbePath = "/probe"

// APIService serves the image wire contract on top of the core service.
type APIService struct {
	config      *core.ServiceConfig
	coreService *core.CoreService
}

type addImageRequest struct {
	OwnerID     int64   `json:"ownerId" validate:"required,min=1"`
	IsMain      bool    `json:"isMain"`
	ImageURL    string  `json:"imageUrl"`
	ImageData   string  `json:"imageData"`
	ContentType string  `json:"contentType"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type updateImageRequest struct {
	Description *string `json:"description" validate:"omitempty,max=2000"`
	IsMain      *bool   `json:"isMain"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		config:      config,
		coreService: coreService,
	}
}

// NewServer creates an echo instance with request logging, panic recovery
// and the shared validator.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == ProbePath
		},
		LogStatus:    true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogError:     true,
		LogRemoteIP:  true,
		LogRoutePath: true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"route", v.RoutePath,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				slog.Error("request failed", append(attrs, "error", v.Error)...)
			} else {
				slog.Info("request handled", attrs...)
			}
			return nil
		},
	}))

	e.Use(middleware.Recover())
	e.Pre(middleware.RemoveTrailingSlash())

	e.Validator = &common.GenericEchoValidator{}

	return e
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET(ProbePath, func(c echo.Context) error {
		return c.String(http.StatusOK, "API Service is running")
	})

	images := e.Group("/images", s.authMiddleware)
	images.GET("/by-owner/:ownerId", s.listByOwnerHandler)
	images.GET("/by-owner/:ownerId/main", s.mainByOwnerHandler)
	images.POST("/batch-upload", s.batchUploadHandler)
	images.POST("", s.addImageHandler)
	images.GET("/:id", s.getImageHandler)
	images.PUT("/:id", s.updateImageHandler)
	images.DELETE("/:id", s.deleteImageHandler)
	images.PUT("/:id/set-as-main", s.setAsMainHandler)
}

// authMiddleware requires the configured bearer token, if any.
func (s *APIService) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if s.config.AuthToken == "" {
			return next(ctx)
		}
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if header != "Bearer "+s.config.AuthToken {
			slog.Warn("authMiddleware: rejected request", "path", ctx.Path(), "status", http.StatusUnauthorized)
			return errorJSON(ctx, http.StatusUnauthorized, "missing or invalid bearer token")
		}
		return next(ctx)
	}
}

func (s *APIService) listByOwnerHandler(ctx echo.Context) error {
	ownerID, err := int64Param(ctx, "ownerId")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	images, err := s.coreService.ListImages(ownerID, includeImageData(ctx))
	if err != nil {
		slog.Error("listByOwnerHandler: failed to list images", "owner_id", ownerID, "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "failed to list images")
	}
	return ctx.JSON(http.StatusOK, images)
}

func (s *APIService) mainByOwnerHandler(ctx echo.Context) error {
	ownerID, err := int64Param(ctx, "ownerId")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	image, err := s.coreService.GetMainImage(ownerID, includeImageData(ctx))
	if err != nil {
		return s.coreError(ctx, "mainByOwnerHandler", err)
	}
	return ctx.JSON(http.StatusOK, image)
}

func (s *APIService) getImageHandler(ctx echo.Context) error {
	id, err := int64Param(ctx, "id")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	image, err := s.coreService.GetImage(id)
	if err != nil {
		return s.coreError(ctx, "getImageHandler", err)
	}
	return ctx.JSON(http.StatusOK, image)
}

func (s *APIService) addImageHandler(ctx echo.Context) error {
	var request addImageRequest
	if err := ctx.Bind(&request); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if err := ctx.Validate(&request); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	image, err := s.coreService.AddImage(imageservice.NewImage(request))
	if err != nil {
		return s.coreError(ctx, "addImageHandler", err)
	}
	return ctx.JSON(http.StatusCreated, image)
}

func (s *APIService) updateImageHandler(ctx echo.Context) error {
	id, err := int64Param(ctx, "id")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	var request updateImageRequest
	if err := ctx.Bind(&request); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, "invalid JSON body")
	}
	if err := ctx.Validate(&request); err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	image, err := s.coreService.UpdateImage(id, imageservice.ImageUpdate(request))
	if err != nil {
		return s.coreError(ctx, "updateImageHandler", err)
	}
	return ctx.JSON(http.StatusOK, image)
}

func (s *APIService) deleteImageHandler(ctx echo.Context) error {
	id, err := int64Param(ctx, "id")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	if err := s.coreService.DeleteImage(id); err != nil {
		return s.coreError(ctx, "deleteImageHandler", err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *APIService) setAsMainHandler(ctx echo.Context) error {
	id, err := int64Param(ctx, "id")
	if err != nil {
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	}
	image, err := s.coreService.SetMainImage(id)
	if err != nil {
		return s.coreError(ctx, "setAsMainHandler", err)
	}
	return ctx.JSON(http.StatusOK, image)
}

// batchUploadHandler answers 200 with per-file outcomes once the form itself
// is valid, also when every file was rejected.
func (s *APIService) batchUploadHandler(ctx echo.Context) error {
	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = core.DefaultMaxUploadBytes
	}
	request := ctx.Request()
	request.Body = http.MaxBytesReader(ctx.Response(), request.Body, limit)

	form, err := ctx.MultipartForm()
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return errorJSON(ctx, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		}
		return errorJSON(ctx, http.StatusBadRequest, "invalid multipart form")
	}
	defer func() {
		if rerr := form.RemoveAll(); rerr != nil {
			slog.Debug("batchUploadHandler: failed to remove temporary files", "error", rerr)
		}
	}()

	ownerID, err := strconv.ParseInt(firstValue(form, "ownerId"), 10, 64)
	if err != nil || ownerID <= 0 {
		return errorJSON(ctx, http.StatusBadRequest, "ownerId must be a positive integer")
	}
	isMain := false
	if raw := firstValue(form, "isMain"); raw != "" {
		isMain, err = strconv.ParseBool(raw)
		if err != nil {
			return errorJSON(ctx, http.StatusBadRequest, "isMain must be \"true\" or \"false\"")
		}
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return errorJSON(ctx, http.StatusBadRequest, "at least one file is required")
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, header := range headers {
		data, err := readFormFile(header)
		if err != nil {
			slog.Error("batchUploadHandler: failed to read uploaded file", "filename", header.Filename, "error", err)
			return errorJSON(ctx, http.StatusBadRequest, fmt.Sprintf("failed to read file %s", header.Filename))
		}
		files = append(files, core.UploadedFile{
			Name:        header.Filename,
			ContentType: header.Header.Get(echo.HeaderContentType),
			Data:        data,
		})
	}

	result := s.coreService.BatchUpload(ownerID, isMain, files)
	return ctx.JSON(http.StatusOK, result)
}

func (s *APIService) coreError(ctx echo.Context, handler string, err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return errorJSON(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrInvalidImage):
		return errorJSON(ctx, http.StatusBadRequest, err.Error())
	default:
		slog.Error(handler+": request failed", "status", http.StatusInternalServerError, "error", err)
		return errorJSON(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func errorJSON(ctx echo.Context, status int, message string) error {
	return ctx.JSON(status, map[string]string{"error": message})
}

func int64Param(ctx echo.Context, name string) (int64, error) {
	value, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return value, nil
}

func includeImageData(ctx echo.Context) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(ctx.QueryParam("includeImageData")))
	return err == nil && value
}

func firstValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()
	return io.ReadAll(src)
}
