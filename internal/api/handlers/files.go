package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"photark/internal/config"
	"photark/internal/models"
	"photark/internal/service"
	"photark/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	files  service.FileService
	config *config.Config
}

// NewFileHandler creates a new file handler
func NewFileHandler(files service.FileService, config *config.Config) *FileHandler {
	return &FileHandler{files: files, config: config}
}

// Upload handles file upload requests. The form may carry several files;
// each is ingested independently and reported in order, so one duplicate
// never sinks the rest of a batch.
// POST /api/v1/files
func (h *FileHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	form, err := c.MultipartForm()
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to parse multipart form",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.CodeValidationFailed,
			Message: "Failed to parse multipart form",
			Code:    http.StatusBadRequest,
		})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.CodeValidationFailed,
			Message: "Request must contain at least one 'files' field",
			Code:    http.StatusBadRequest,
		})
		return
	}

	type uploadResult struct {
		models.UploadResponse
		Error *models.ErrorResponse `json:"error,omitempty"`
	}

	results := make([]uploadResult, 0, len(headers))
	succeeded := 0

	for _, header := range headers {
		if header.Size > h.config.Upload.MaxFileSize {
			results = append(results, uploadResult{
				UploadResponse: models.UploadResponse{Name: header.Filename},
				Error: &models.ErrorResponse{
					Error:   models.CodeValidationFailed,
					Message: "File exceeds the upload size limit",
					Code:    http.StatusRequestEntityTooLarge,
				},
			})
			continue
		}

		f, err := header.Open()
		if err != nil {
			results = append(results, uploadResult{
				UploadResponse: models.UploadResponse{Name: header.Filename},
				Error: &models.ErrorResponse{
					Error:   models.CodeStorageFailed,
					Message: "Failed to read uploaded file",
					Code:    http.StatusInternalServerError,
				},
			})
			continue
		}

		resp, err := h.files.Ingest(ctx, service.UploadInput{
			Name: header.Filename,
			Mime: header.Header.Get("Content-Type"),
			Body: f,
		})
		f.Close()

		if err != nil {
			status, message := classifyServiceError(err)
			logServiceError(ctx, err, requestID, "upload")
			results = append(results, uploadResult{
				UploadResponse: models.UploadResponse{Name: header.Filename},
				Error: &models.ErrorResponse{
					Error:   models.ErrorCode(err),
					Message: message,
					Code:    status,
				},
			})
			continue
		}

		results = append(results, uploadResult{UploadResponse: *resp})
		succeeded++
	}

	status := http.StatusCreated
	if succeeded == 0 {
		status = results[0].Error.Code
	} else if succeeded < len(results) {
		status = http.StatusMultiStatus
	}

	c.JSON(status, gin.H{"files": results})
}

// Info returns the stored record and formatted photography summary
// GET /api/v1/files/:hash/info
func (h *FileHandler) Info(c *gin.Context) {
	hash := strings.ToLower(c.Param("hash"))

	info, err := h.files.Info(c.Request.Context(), hash)
	if err != nil {
		h.handleServiceError(c, err, "info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// Image streams the stored original
// GET /api/v1/files/:hash
func (h *FileHandler) Image(c *gin.Context) {
	hash := strings.ToLower(c.Param("hash"))

	data, mime, err := h.files.Image(c.Request.Context(), hash)
	if err != nil {
		h.handleServiceError(c, err, "image")
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, mime, data)
}

// Tile streams one deep-zoom tile
// GET /api/v1/files/:hash/:zoom/:x/:y  (y carries a .jpg suffix)
func (h *FileHandler) Tile(c *gin.Context) {
	hash := strings.ToLower(c.Param("hash"))

	zoom, err1 := strconv.Atoi(c.Param("zoom"))
	x, err2 := strconv.Atoi(c.Param("x"))
	y, err3 := strconv.Atoi(strings.TrimSuffix(c.Param("y"), ".jpg"))
	if err1 != nil || err2 != nil || err3 != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   models.CodeValidationFailed,
			Message: "Tile coordinates must be integers",
			Code:    http.StatusBadRequest,
		})
		return
	}

	data, err := h.files.Tile(c.Request.Context(), hash, zoom, x, y)
	if err != nil {
		h.handleServiceError(c, err, "tile")
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// handleServiceError maps the error taxonomy onto HTTP responses. The Error
// field always carries the stable machine-readable code.
func (h *FileHandler) handleServiceError(c *gin.Context, err error, operation string) {
	ctx := c.Request.Context()
	requestID := c.GetString("request_id")

	logServiceError(ctx, err, requestID, operation)

	status, message := classifyServiceError(err)
	c.JSON(status, models.ErrorResponse{
		Error:   models.ErrorCode(err),
		Message: message,
		Code:    status,
	})
}

// classifyServiceError picks the HTTP status and user-facing message for a
// service error
func classifyServiceError(err error) (int, string) {
	switch err.(type) {
	case models.ValidationError, models.DecodeError:
		return http.StatusBadRequest, err.Error()
	case models.UnsupportedDatumError:
		return http.StatusUnprocessableEntity, err.Error()
	case models.DuplicateError:
		return http.StatusConflict, err.Error()
	case models.NotFoundError:
		return http.StatusNotFound, err.Error()
	case models.RelocationError, models.PyramidBuildError:
		return http.StatusInternalServerError, "Processing failed"
	case models.StorageError:
		return http.StatusServiceUnavailable, "Temporary service unavailability"
	default:
		return http.StatusInternalServerError, "An unexpected error occurred"
	}
}

// logServiceError logs at a level matching the error class: client mistakes
// warn, server faults error
func logServiceError(ctx context.Context, err error, requestID, operation string) {
	fields := []zap.Field{
		zap.String("code", models.ErrorCode(err)),
		zap.String("request_id", requestID),
		zap.String("operation", operation),
		zap.Error(err),
	}

	switch err.(type) {
	case models.ValidationError, models.DecodeError, models.UnsupportedDatumError,
		models.DuplicateError, models.NotFoundError:
		logger.WarnWithContext(ctx, "Request failed", fields...)
	default:
		logger.ErrorWithContext(ctx, "Request failed", fields...)
	}
}
