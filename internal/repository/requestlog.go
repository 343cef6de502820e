package repository

import (
	"github.com/bayt-al-hikmah/taskgate/internal/models"
	"github.com/bayt-al-hikmah/taskgate/internal/storage"
)

type RequestLogRepository struct {
	db *storage.Postgres
}

func NewRequestLogRepository(db *storage.Postgres) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Inserts a batch of audit rows in one statement
func (r *RequestLogRepository) CreateBatch(logs []models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.DB.Create(&logs).Error
}
