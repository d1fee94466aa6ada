package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is an uploaded file ingested from inside a chat.
type Document struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	ChatID  *uuid.UUID `gorm:"type:uuid;index" json:"chat_id,omitempty"`

	FileName string `gorm:"column:file_name;not null" json:"file_name"`
	FileURL  string `gorm:"column:file_url" json:"file_url"`
	FileKey  string `gorm:"column:file_key;index" json:"file_key"`
	MimeType string `gorm:"column:mime_type" json:"mime_type"`
	Status   string `gorm:"column:status;not null;default:'ready'" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

func (d *Document) Asset() *Asset {
	if d == nil {
		return nil
	}
	return &Asset{
		ID:        d.ID,
		Kind:      KindDocument,
		OwnerID:   d.OwnerID,
		ChatID:    d.ChatID,
		FileName:  d.FileName,
		FileURL:   d.FileURL,
		FileKey:   d.FileKey,
		MimeType:  d.MimeType,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
}
