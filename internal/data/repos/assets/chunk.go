package assets

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type ChunkRepo interface {
	Create(dbc dbctx.Context, chunks []*types.AssetChunk) ([]*types.AssetChunk, error)
	// ListByAssetID returns chunks in chunk_index order; an asset without chunks yields an empty slice.
	ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetChunk, error)
	DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) (int64, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	repoLog := baseLog.With("repo", "ChunkRepo")
	return &chunkRepo{db: db, log: repoLog}
}

func (r *chunkRepo) Create(dbc dbctx.Context, chunks []*types.AssetChunk) ([]*types.AssetChunk, error) {
	if len(chunks) == 0 {
		return []*types.AssetChunk{}, nil
	}
	// Keep batches small because Text is large
	const batchSize = 100
	if err := dbc.DB(r.db).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *chunkRepo) ListByAssetID(dbc dbctx.Context, assetID uuid.UUID) ([]*types.AssetChunk, error) {
	results := []*types.AssetChunk{}
	if assetID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("asset_id = ?", assetID).
		Order("chunk_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chunkRepo) DeleteByAssetID(dbc dbctx.Context, assetID uuid.UUID) (int64, error) {
	if assetID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("asset_id = ?", assetID).Delete(&types.AssetChunk{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
