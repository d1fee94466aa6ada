package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImageAnalysis is an analyzed image attachment. Analysis holds the model output as-is.
type ImageAnalysis struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	ChatID  *uuid.UUID `gorm:"type:uuid;index" json:"chat_id,omitempty"`

	FileName string         `gorm:"column:file_name;not null" json:"file_name"`
	FileURL  string         `gorm:"column:file_url" json:"file_url"`
	FileKey  string         `gorm:"column:file_key;index" json:"file_key"`
	MimeType string         `gorm:"column:mime_type" json:"mime_type"`
	Analysis datatypes.JSON `gorm:"column:analysis" json:"analysis,omitempty"`
	Status   string         `gorm:"column:status;not null;default:'ready'" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ImageAnalysis) TableName() string { return "image_analysis" }

func (a *ImageAnalysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *ImageAnalysis) Asset() *Asset {
	if a == nil {
		return nil
	}
	return &Asset{
		ID:        a.ID,
		Kind:      KindImageAnalysis,
		OwnerID:   a.OwnerID,
		ChatID:    a.ChatID,
		FileName:  a.FileName,
		FileURL:   a.FileURL,
		FileKey:   a.FileKey,
		MimeType:  a.MimeType,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
	}
}
