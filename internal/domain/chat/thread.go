package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatThread struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Title  string `gorm:"column:title;not null;default:'New Chat'" json:"title"`
	Status string `gorm:"column:status;not null;default:'active';index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ChatThread) TableName() string { return "chat_thread" }

func (t *ChatThread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
