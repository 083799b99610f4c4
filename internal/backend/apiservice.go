package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/jo-hoe/lovenotes/internal/backend/database"
	"github.com/jo-hoe/lovenotes/internal/backend/intake"
	"github.com/jo-hoe/lovenotes/internal/core"
	"github.com/jo-hoe/lovenotes/internal/photo"
	"github.com/labstack/echo/v4"
)

const readOnlyMessage = "Storage is unavailable, the album is in read-only mode"

type APIService struct {
	coreService *core.CoreService
}

// ClientConfig is what the gallery needs to set itself up
type ClientConfig struct {
	MusicURL       string               `json:"musicUrl"`
	Categories     []photo.FilterOption `json:"categories"`
	ReadOnly       bool                 `json:"readOnly"`
	MaxFileSize    int64                `json:"maxFileSize"`
	SupportedTypes []string             `json:"supportedTypes"`
}

type uploadForm struct {
	Caption  string `form:"caption" validate:"required,max=500"`
	Date     string `form:"date" validate:"omitempty,photodate"`
	Category string `form:"category" validate:"required,category"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", s.probeHandler)

	e.GET("/api/config", s.configHandler)
	e.GET("/api/photos", s.listPhotosHandler)
	e.POST("/api/photos", s.uploadPhotoHandler)
	e.DELETE("/api/photos/:id", s.deletePhotoHandler)
	e.GET("/api/photos/:id/image", s.imageHandler)
	e.GET("/api/photos/:id/thumbnail", s.thumbnailHandler)

	e.GET("/api/export", s.exportHandler)
	e.POST("/api/import", s.importHandler)
	e.DELETE("/api/data", s.clearHandler)
}

func (s *APIService) probeHandler(ctx echo.Context) error {
	if s.coreService.IsReadOnly() {
		return ctx.String(http.StatusOK, "API Service is running in read-only mode")
	}
	if !s.coreService.StoreReachable(ctx.Request().Context()) {
		slog.Error("probeHandler: photo store is unreachable", "status", http.StatusServiceUnavailable)
		return ctx.String(http.StatusServiceUnavailable, "Photo store is unreachable")
	}
	return ctx.String(http.StatusOK, "API Service is running")
}

func (s *APIService) configHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, ClientConfig{
		MusicURL:       s.coreService.Config().MusicURL,
		Categories:     photo.FilterOptions(),
		ReadOnly:       s.coreService.IsReadOnly(),
		MaxFileSize:    s.coreService.MaxFileSize(),
		SupportedTypes: intake.SupportedMimeTypes(),
	})
}

func (s *APIService) listPhotosHandler(ctx echo.Context) error {
	filter, err := photo.ParseFilter(ctx.QueryParam("category"))
	if err != nil {
		return respondError(ctx, "list photos", err)
	}
	collection := s.coreService.GetCollection(ctx.Request().Context())
	SetNoCache(ctx)
	return ctx.JSON(http.StatusOK, photo.FilterByCategory(collection, filter))
}

func (s *APIService) uploadPhotoHandler(ctx echo.Context) error {
	var form uploadForm
	if err := ctx.Bind(&form); err != nil {
		return err
	}
	if err := ctx.Validate(&form); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		slog.Warn("uploadPhotoHandler: missing image", "status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "Please select an image"})
	}
	file, err := ReadUpload(fileHeader, s.coreService.MaxFileSize())
	if err != nil {
		return respondError(ctx, "read upload", err)
	}

	collection, err := s.coreService.UploadPhoto(ctx.Request().Context(), file, core.UploadMetadata{
		Caption:    form.Caption,
		CapturedOn: form.Date,
		Category:   form.Category,
	})
	if err != nil {
		return respondError(ctx, "upload photo", err)
	}
	return ctx.JSON(http.StatusCreated, collection)
}

func (s *APIService) deletePhotoHandler(ctx echo.Context) error {
	collection, err := s.coreService.DeleteRecord(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, "delete photo", err)
	}
	return ctx.JSON(http.StatusOK, collection)
}

func (s *APIService) imageHandler(ctx echo.Context) error {
	record, err := s.coreService.GetPhoto(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, "get photo", err)
	}

	switch source := record.Source.(type) {
	case photo.URLSource:
		return ctx.Redirect(http.StatusFound, source.URL)
	case photo.InlineSource:
		return ctx.Blob(http.StatusOK, source.MimeType, source.Data)
	default:
		return respondError(ctx, "get photo", fmt.Errorf("photo %s has no image source", record.ID))
	}
}

func (s *APIService) thumbnailHandler(ctx echo.Context) error {
	record, err := s.coreService.GetPhoto(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return respondError(ctx, "get thumbnail", err)
	}

	switch source := record.Source.(type) {
	case photo.URLSource:
		return ctx.Redirect(http.StatusFound, source.URL)
	case photo.InlineSource:
		thumbnail, err := s.coreService.Thumbnail(source.Data)
		if err != nil {
			return respondError(ctx, "render thumbnail", err)
		}
		ctx.Response().Header().Set("Cache-Control", "private, max-age=86400")
		return ctx.Blob(http.StatusOK, "image/jpeg", thumbnail)
	default:
		return respondError(ctx, "get thumbnail", fmt.Errorf("photo %s has no image source", record.ID))
	}
}

func (s *APIService) exportHandler(ctx echo.Context) error {
	snapshot, err := s.coreService.Export(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, "export", err)
	}
	filename := fmt.Sprintf("lovenotes-export-%s.json", time.Now().Format(photo.DateLayout))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.JSON(http.StatusOK, snapshot)
}

func (s *APIService) importHandler(ctx echo.Context) error {
	snapshot := &database.Snapshot{}
	if err := ctx.Bind(snapshot); err != nil {
		return err
	}
	collection, err := s.coreService.Import(ctx.Request().Context(), snapshot)
	if err != nil {
		return respondError(ctx, "import", err)
	}
	return ctx.JSON(http.StatusOK, collection)
}

func (s *APIService) clearHandler(ctx echo.Context) error {
	collection, err := s.coreService.Clear(ctx.Request().Context())
	if err != nil {
		return respondError(ctx, "clear data", err)
	}
	return ctx.JSON(http.StatusOK, collection)
}

// ReadUpload loads an uploaded file. Files above limit are not read, intake rejects them by size.
func ReadUpload(fileHeader *multipart.FileHeader, limit int64) (intake.File, error) {
	file := intake.File{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:     fileHeader.Size,
	}
	if file.Size > limit {
		return file, nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return file, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("failed to close uploaded file reader", "error", cerr, "filename", fileHeader.Filename)
		}
	}()

	file.Data, err = io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return file, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	file.Size = int64(len(file.Data))
	if file.MimeType == "" || file.MimeType == echo.MIMEOctetStream {
		file.MimeType = http.DetectContentType(file.Data)
	}
	return file, nil
}

// StatusFor maps domain errors to an HTTP status and a message safe to show the user
func StatusFor(err error) (int, string) {
	var tooLarge *intake.FileTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, tooLarge.Error()
	case errors.Is(err, photo.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrDuplicateID):
		return http.StatusConflict, "A photo with this id already exists"
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Photo not found"
	case errors.Is(err, database.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, readOnlyMessage
	case errors.Is(err, intake.ErrDecodeFailed), errors.Is(err, intake.ErrRenderContextUnavailable):
		return http.StatusUnprocessableEntity, "Failed to process image, please try another file"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}

func respondError(ctx echo.Context, op string, err error) error {
	status, message := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "op", op, "status", status, "error", err)
	} else {
		slog.Warn("request rejected", "op", op, "status", status, "error", err)
	}
	return ctx.JSON(status, errorResponse{Error: message})
}

func SetNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
