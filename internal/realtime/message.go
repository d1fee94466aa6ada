package realtime

import (
	"github.com/google/uuid"
)

type SSEEvent string

const (
	SSEEventAssetDeleted SSEEvent = "asset_deleted"
)

type SSEMessage struct {
	Channel string   `json:"channel"`
	Event   SSEEvent `json:"event"`
	Data    any      `json:"data,omitempty"`
}

// UserChannel is the per-user fan-out channel name.
func UserChannel(userID uuid.UUID) string {
	return "user:" + userID.String()
}
