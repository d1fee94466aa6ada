package assets

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

// AssetRepo reads and deletes assets across every kind table.
type AssetRepo interface {
	// GetByID returns nil, nil when no kind table holds id.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Asset, error)
	// DeleteByID reports false when the row was already gone.
	DeleteByID(dbc dbctx.Context, kind types.AssetKind, id uuid.UUID) (bool, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	repoLog := baseLog.With("repo", "AssetRepo")
	return &assetRepo{db: db, log: repoLog}
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Asset, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.DB(r.db)
	for _, kind := range types.AssetKinds {
		found, err := findByKind(transaction, kind, "id = ?", id)
		if err != nil {
			return nil, fmt.Errorf("get %s %s: %w", kind, id, err)
		}
		if len(found) > 0 {
			return found[0], nil
		}
	}
	return nil, nil
}

func (r *assetRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Asset, error) {
	results := []*types.Asset{}
	if ownerID == uuid.Nil {
		return results, nil
	}
	transaction := dbc.DB(r.db)
	for _, kind := range types.AssetKinds {
		found, err := findByKind(transaction, kind, "owner_id = ?", ownerID)
		if err != nil {
			return nil, fmt.Errorf("list %s for owner: %w", kind, err)
		}
		results = append(results, found...)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID.String() < results[j].ID.String()
		}
		return results[i].CreatedAt.Before(results[j].CreatedAt)
	})
	return results, nil
}

func (r *assetRepo) DeleteByID(dbc dbctx.Context, kind types.AssetKind, id uuid.UUID) (bool, error) {
	model, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	res := dbc.DB(r.db).Where("id = ?", id).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Debug("Asset row already gone", "kind", kind, "asset_id", id)
		return false, nil
	}
	return true, nil
}

func modelFor(kind types.AssetKind) (interface{}, error) {
	switch kind {
	case types.AssetKindDocument:
		return &types.Document{}, nil
	case types.AssetKindLibraryDocument:
		return &types.LibraryDocument{}, nil
	case types.AssetKindImageAnalysis:
		return &types.ImageAnalysis{}, nil
	default:
		return nil, fmt.Errorf("unknown asset kind %q", kind)
	}
}

func findByKind(tx *gorm.DB, kind types.AssetKind, query string, args ...interface{}) ([]*types.Asset, error) {
	var out []*types.Asset
	switch kind {
	case types.AssetKindDocument:
		var rows []*types.Document
		if err := tx.Where(query, args...).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, row.Asset())
		}
	case types.AssetKindLibraryDocument:
		var rows []*types.LibraryDocument
		if err := tx.Where(query, args...).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, row.Asset())
		}
	case types.AssetKindImageAnalysis:
		var rows []*types.ImageAnalysis
		if err := tx.Where(query, args...).Order("created_at ASC").Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			out = append(out, row.Asset())
		}
	default:
		return nil, fmt.Errorf("unknown asset kind %q", kind)
	}
	return out, nil
}
