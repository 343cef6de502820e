package repository

import (
	"context"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/bayt-al-hikmah/taskgate/internal/storage"
)

type PhotoRepository struct {
	db *storage.Postgres
}

func NewPhotoRepository(db *storage.Postgres) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	return r.db.DB.WithContext(ctx).Create(photo).Error
}

// Retrieves all photos, newest first
func (r *PhotoRepository) List(ctx context.Context) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.DB.WithContext(ctx).
		Order("uploaded_at DESC").
		Find(&photos).Error

	return photos, err
}
