package repository

import (
	"context"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/bayt-al-hikmah/taskgate/internal/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *storage.Postgres
}

func NewTaskRepository(db *storage.Postgres) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.DB.WithContext(ctx).Create(task).Error
}

// Retrieves one user's tasks, newest first
func (r *TaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error

	return tasks, err
}

// Retrieves a task only if it belongs to the user
func (r *TaskRepository) FindOwned(ctx context.Context, id, userID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &task, err
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.DB.WithContext(ctx).Save(task).Error
}

func (r *TaskRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return r.db.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Task{}).Error
}
