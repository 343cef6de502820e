package handler

import (
	"errors"
	"net/http"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/service"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	auth *service.AuthService
}

func NewProfileHandler(auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "User not found")
			return
		}
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to load profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "Invalid request body")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), userID, req.Username, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "User not found")
		default:
			httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, user)
}

type updatePasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *ProfileHandler) UpdatePassword(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "password is required")
		return
	}

	if err := h.auth.UpdatePassword(c.Request.Context(), userID, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, err.Error())
		case errors.Is(err, service.ErrUserNotFound):
			httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "User not found")
		default:
			httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to update password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
