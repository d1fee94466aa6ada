package assets

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chunk is one indexed fragment of an asset. VectorID is the join key into the vector index.
type Chunk struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID    uuid.UUID `gorm:"type:uuid;not null;index:idx_asset_chunk_asset_index,priority:1" json:"asset_id"`
	ChunkIndex int       `gorm:"column:chunk_index;not null;index:idx_asset_chunk_asset_index,priority:2" json:"chunk_index"`
	PageNumber *int      `gorm:"column:page_number" json:"page_number,omitempty"`
	Text       string    `gorm:"column:text;type:text;not null" json:"text"`
	VectorID   string    `gorm:"column:vector_id;not null;index" json:"vector_id"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Chunk) TableName() string { return "asset_chunk" }

func (c *Chunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// VectorIDs collects the vector id of every chunk in order.
func VectorIDs(chunks []*Chunk) []string {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c == nil {
			continue
		}
		out = append(out, c.VectorID)
	}
	return out
}
