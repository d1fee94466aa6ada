package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/data/repos/assets"
	"github.com/yungbote/knowledge-backend/internal/data/repos/chat"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type AssetRepo = assets.AssetRepo
type ChunkRepo = assets.ChunkRepo

type ChatMessageRepo = chat.ChatMessageRepo

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return assets.NewAssetRepo(db, baseLog)
}
func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return assets.NewChunkRepo(db, baseLog)
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}
