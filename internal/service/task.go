package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

const maxTaskNameLen = 200

// TaskStore is the persistence boundary for tasks. Satisfied by
// repository.TaskRepository.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type TaskService struct {
	tasks TaskStore
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks}
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	return s.tasks.ListByUser(ctx, userID)
}

func (s *TaskService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: task name is required", ErrValidation)
	}
	if len(name) > maxTaskNameLen {
		return nil, fmt.Errorf("%w: task name must be at most %d characters", ErrValidation, maxTaskNameLen)
	}

	task := &models.Task{UserID: userID, Name: name}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// SetState updates a task's done flag. Other users' tasks are
// indistinguishable from missing ones.
func (s *TaskService) SetState(ctx context.Context, userID, taskID uuid.UUID, state bool) (*models.Task, error) {
	task, err := s.tasks.FindOwned(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	task.State = state
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.tasks.FindOwned(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if task == nil {
		return ErrTaskNotFound
	}

	return s.tasks.Delete(ctx, taskID, userID)
}
