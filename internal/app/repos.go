package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/data/repos"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type Repos struct {
	Asset       repos.AssetRepo
	Chunk       repos.ChunkRepo
	ChatMessage repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Asset:       repos.NewAssetRepo(db, log),
		Chunk:       repos.NewChunkRepo(db, log),
		ChatMessage: repos.NewChatMessageRepo(db, log),
	}
}
