package handler

import (
	"errors"
	"net/http"

	"github.com/bayt-al-hikmah/taskgate/internal/httperr"
	"github.com/bayt-al-hikmah/taskgate/internal/middleware"
	"github.com/bayt-al-hikmah/taskgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TaskHandler struct {
	tasks *service.TaskService
}

func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// mustUser reads the identity the access gate attached; the gate runs
// on every route in this group, so absence is a wiring bug.
func mustUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Identity missing from request context")
	}
	return userID, ok
}

func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), userID)
	if err != nil {
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to list tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type createTaskRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "Task name is required")
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, err.Error())
			return
		}
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

type updateTaskRequest struct {
	State *bool `json:"state" binding:"required"`
}

func (h *TaskHandler) UpdateState(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "Task not found")
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.JSON(c, http.StatusBadRequest, httperr.CodeValidationFailed, "state is required")
		return
	}

	task, err := h.tasks.SetState(c.Request.Context(), userID, taskID, *req.State)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "Task not found")
			return
		}
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := mustUser(c)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "Task not found")
		return
	}

	if err := h.tasks.Delete(c.Request.Context(), userID, taskID); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			httperr.JSON(c, http.StatusNotFound, httperr.CodeNotFound, "Task not found")
			return
		}
		httperr.JSON(c, http.StatusInternalServerError, httperr.CodeInternal, "Failed to delete task")
		return
	}

	c.Status(http.StatusNoContent)
}
