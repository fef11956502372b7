package handlers

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/lanstream/internal/metrics"
	"github.com/nfrund/lanstream/internal/storage"
)

// UploadHandler accepts out-of-band file uploads and serves stored blobs back.
// An upload stores the bytes and hands back a reference token; nothing enters
// the history until a file envelope carrying the token is submitted.
type UploadHandler struct {
	blobs       storage.Store
	maxFileSize int64
}

// NewUploadHandler creates a new UploadHandler. maxFileSize of zero disables
// the size check, which is the LAN-local default.
func NewUploadHandler(blobs storage.Store, maxFileSize int64) *UploadHandler {
	return &UploadHandler{blobs: blobs, maxFileSize: maxFileSize}
}

// Upload handles a multipart upload under the "file" form field and returns
// the generated reference token. A failed write leaves no partial blob and
// returns no token.
func (h *UploadHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Multipart field 'file' is required")
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		return c.String(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File size of %d bytes exceeds the limit of %d bytes", fileHeader.Size, h.maxFileSize))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer src.Close()

	// The token keeps the original extension so blob downloads get a usable
	// content type, while the uuid part makes same-named uploads collide-free.
	sanitizedName := filepath.Base(fileHeader.Filename)
	token := uuid.New().String() + filepath.Ext(sanitizedName)

	bytesWritten, err := h.blobs.Save(ctx, token, src)
	if err != nil {
		slog.Error("Failed to save uploaded file", "name", sanitizedName, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to save file")
	}

	metrics.UploadsAccepted.Inc()
	metrics.UploadBytes.Add(float64(bytesWritten))
	slog.Info("Stored upload", "token", token, "name", sanitizedName, "size", bytesWritten)

	return c.JSON(http.StatusCreated, UploadResponse{
		Content:      token,
		OriginalName: sanitizedName,
		SizeBytes:    bytesWritten,
	})
}

// Download streams a stored blob back by its reference token.
func (h *UploadHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.Param("token")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Token is required")
	}

	content, err := h.blobs.Open(ctx, token)
	if err != nil {
		return c.String(http.StatusNotFound, "File not found")
	}
	defer content.Close()

	contentType := mime.TypeByExtension(filepath.Ext(token))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.Stream(http.StatusOK, contentType, content)
}
