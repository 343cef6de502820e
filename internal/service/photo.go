package service

import (
	"context"

	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/google/uuid"
)

// PhotoStore is the persistence boundary for uploaded photos.
// Satisfied by repository.PhotoRepository.
type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	List(ctx context.Context) ([]models.Photo, error)
}

// PhotoService records photo metadata. Streaming the file bytes to
// disk stays with the upload handler; only the resulting path lands
// here.
type PhotoService struct {
	photos PhotoStore
}

func NewPhotoService(photos PhotoStore) *PhotoService {
	return &PhotoService{photos: photos}
}

func (s *PhotoService) Create(ctx context.Context, userID uuid.UUID, caption, filePath string) (*models.Photo, error) {
	photo := &models.Photo{UserID: userID, Caption: caption, FilePath: filePath}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

func (s *PhotoService) List(ctx context.Context) ([]models.Photo, error) {
	return s.photos.List(ctx)
}
