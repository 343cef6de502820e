package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/service"
	"github.com/bayt-al-hikmah/taskgate/internal/upload"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth       *service.AuthService
	media      *MediaStore
	uploadOpts upload.Options
}

func NewAuthHandler(auth *service.AuthService, media *MediaStore, uploadOpts upload.Options) *AuthHandler {
	return &AuthHandler{auth: auth, media: media, uploadOpts: uploadOpts}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register accepts either a JSON body or a multipart body with an
// optional avatar file.
func (h *AuthHandler) Register(c *gin.Context) {
	var (
		req        registerRequest
		avatarPath string
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		path, parsed, ok := h.decodeRegistration(c)
		if !ok {
			return
		}
		req, avatarPath = parsed, path
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "Invalid request body")
			return
		}
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password, avatarPath)
	if err != nil {
		// A rejected registration must not leave the avatar behind
		h.media.Remove(avatarPath)

		switch {
		case errors.Is(err, service.ErrValidation):
			httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, err.Error())
		case errors.Is(err, service.ErrEmailTaken):
			httperr.JSON(c, http.StatusConflict, httperr.CodeValidationFailed, err.Error())
		default:
			httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Registration failed")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// decodeRegistration walks the multipart stream part by part: text
// fields fill the request, a part named "avatar" streams to the media
// store. Returns ok=false after writing the error response.
func (h *AuthHandler) decodeRegistration(c *gin.Context) (avatarPath string, req registerRequest, ok bool) {
	decoder, err := upload.FromRequest(c.Request, h.uploadOpts)
	if err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeMalformedUpload, "Malformed multipart body")
		return "", req, false
	}

	for {
		part, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.media.Remove(avatarPath)
			writeUploadError(c, err)
			return "", req, false
		}

		switch {
		case part.Kind == upload.KindField:
			switch part.Name {
			case "username":
				req.Username = part.Value
			case "email":
				req.Email = part.Value
			case "password":
				req.Password = part.Value
			}
		case part.Name == "avatar":
			path, err := h.media.Save(part.Filename, part.Reader)
			if err != nil {
				h.media.Remove(avatarPath)
				writeUploadError(c, err)
				return "", req, false
			}
			avatarPath = path
		}
	}

	return avatarPath, req, true
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "Email and password are required")
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httperr.JSON(c, http.StatusUnauthorized, httperr.CodeAuthenticationFailure, "Invalid credentials")
			return
		}
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Login failed")
		return
	}

	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh runs ungated so callers whose access token already expired
// can still reach it.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "refresh_token is required")
		return
	}

	accessToken, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		httperr.JSON(c, http.StatusUnauthorized, httperr.CodeTokenInvalid, "Invalid or expired refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// writeUploadError maps decoder failures onto the wire taxonomy.
func writeUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge), errors.Is(err, upload.ErrFieldTooLarge):
		httperr.JSON(c, http.StatusRequestEntityTooLarge, httperr.CodeUploadTooLarge, "Uploaded content exceeds the size limit")
	case errors.Is(err, upload.ErrMalformed):
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeMalformedUpload, "Malformed multipart body")
	default:
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeMalformedUpload, "Upload aborted")
	}
}
