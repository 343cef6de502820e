package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/service"
	"github.com/bayt-al-hikmah/taskgate/internal/upload"
	"github.com/gin-gonic/gin"
)

type PhotoHandler struct {
	photos     *service.PhotoService
	media      *MediaStore
	uploadOpts upload.Options
}

func NewPhotoHandler(photos *service.PhotoService, media *MediaStore, uploadOpts upload.Options) *PhotoHandler {
	return &PhotoHandler{photos: photos, media: media, uploadOpts: uploadOpts}
}

// Upload streams a multipart body (caption field + photo file) to the
// media store without buffering the file in memory.
func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	decoder, err := upload.FromRequest(c.Request, h.uploadOpts)
	if err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeMalformedUpload, "Malformed multipart body")
		return
	}

	var (
		caption  string
		filePath string
	)

	for {
		part, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.media.Remove(filePath)
			writeUploadError(c, err)
			return
		}

		switch {
		case part.Kind == upload.KindField && part.Name == "caption":
			caption = part.Value
		case part.Kind == upload.KindFile && part.Name == "photo":
			path, err := h.media.Save(part.Filename, part.Reader)
			if err != nil {
				h.media.Remove(filePath)
				writeUploadError(c, err)
				return
			}
			filePath = path
		}
	}

	if filePath == "" {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "A photo file is required")
		return
	}

	photo, err := h.photos.Create(c.Request.Context(), userID, caption, filePath)
	if err != nil {
		h.media.Remove(filePath)
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to save photo")
		return
	}

	c.JSON(http.StatusCreated, photo)
}

func (h *PhotoHandler) List(c *gin.Context) {
	photos, err := h.photos.List(c.Request.Context())
	if err != nil {
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to list photos")
		return
	}

	c.JSON(http.StatusOK, gin.H{"photos": photos})
}
