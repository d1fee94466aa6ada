package db

import (
	types "github.com/yungbote/knowledge-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Knowledge assets
		// =========================
		&types.Document{},
		&types.LibraryDocument{},
		&types.ImageAnalysis{},
		&types.AssetChunk{},

		// =========================
		// Chat
		// =========================
		&types.ChatThread{},
		&types.ChatMessage{},
	)
}
