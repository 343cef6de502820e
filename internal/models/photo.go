package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Photo struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Caption    string    `json:"caption"`
	FilePath   string    `gorm:"not null" json:"-"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (Photo) TableName() string {
	return "photos"
}
