package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/platform/apierr"
	"github.com/yungbote/knowledge-backend/internal/platform/dbctx"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error)
	// ListByThread returns every message of a thread in seq order.
	ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatMessage, error)
	// UpdateParts replaces the parts column only; the message keeps its id and position.
	UpdateParts(dbc dbctx.Context, id uuid.UUID, parts datatypes.JSON) error
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: log.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(dbc dbctx.Context, rows []*types.ChatMessage) ([]*types.ChatMessage, error) {
	if len(rows) == 0 {
		return []*types.ChatMessage{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *chatMessageRepo) ListByThread(dbc dbctx.Context, threadID uuid.UUID) ([]*types.ChatMessage, error) {
	if threadID == uuid.Nil {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.ChatMessage
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Order("seq ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chatMessageRepo) UpdateParts(dbc dbctx.Context, id uuid.UUID, parts datatypes.JSON) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing message id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Model(&types.ChatMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"parts":      parts,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("chat message %s: %w", id, apierr.ErrNotFound)
	}
	return nil
}
