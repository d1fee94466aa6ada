package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/knowledge-backend/internal/domain"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/realtime"
	"github.com/yungbote/knowledge-backend/internal/realtime/bus"
)

type AssetNotifier interface {
	AssetDeleted(ctx context.Context, ownerID uuid.UUID, asset *types.Asset)
}

type assetNotifier struct {
	log *logger.Logger
	bus bus.Bus
}

// NewAssetNotifier publishes deletion events on b. Publish errors are logged and dropped.
func NewAssetNotifier(baseLog *logger.Logger, b bus.Bus) AssetNotifier {
	return &assetNotifier{log: baseLog.With("service", "AssetNotifier"), bus: b}
}

func (n *assetNotifier) AssetDeleted(ctx context.Context, ownerID uuid.UUID, asset *types.Asset) {
	if n == nil || n.bus == nil || ownerID == uuid.Nil || asset == nil {
		return
	}
	msg := realtime.SSEMessage{
		Channel: realtime.UserChannel(ownerID),
		Event:   realtime.SSEEventAssetDeleted,
		Data: map[string]any{
			"asset_id":  asset.ID,
			"kind":      asset.Kind,
			"file_name": asset.FileName,
		},
	}
	if err := n.bus.Publish(ctx, msg); err != nil {
		n.log.Warn("Failed to publish asset_deleted event", "asset_id", asset.ID, "owner_id", ownerID, "error", err)
	}
}
