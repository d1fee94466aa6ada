package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/knowledge-backend/internal/domain"
)

func SeedThread(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.ChatThread {
	tb.Helper()
	th := &types.ChatThread{ID: uuid.New(), UserID: userID, Title: "thread", Status: "active"}
	if err := tx.WithContext(ctx).Create(th).Error; err != nil {
		tb.Fatalf("seed thread: %v", err)
	}
	return th
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, chatID *uuid.UUID, name string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		ChatID:   chatID,
		FileName: name,
		FileKey:  "uploads/" + name,
		FileURL:  "https://files.example.com/uploads/" + name,
		MimeType: "application/pdf",
		Status:   "ready",
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedLibraryDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) *types.LibraryDocument {
	tb.Helper()
	d := &types.LibraryDocument{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		FileName: name,
		FileKey:  "library/" + name,
		FileURL:  "https://files.example.com/library/" + name,
		MimeType: "application/pdf",
		Status:   "ready",
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed library document: %v", err)
	}
	return d
}

func SeedImageAnalysis(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, chatID *uuid.UUID, name string) *types.ImageAnalysis {
	tb.Helper()
	a := &types.ImageAnalysis{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		ChatID:   chatID,
		FileName: name,
		FileKey:  "images/" + name,
		FileURL:  "https://files.example.com/images/" + name,
		MimeType: "image/png",
		Analysis: datatypes.JSON([]byte(`{"labels":["chart"]}`)),
		Status:   "ready",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed image analysis: %v", err)
	}
	return a
}

func SeedChunks(tb testing.TB, ctx context.Context, tx *gorm.DB, assetID uuid.UUID, n int) []*types.AssetChunk {
	tb.Helper()
	out := make([]*types.AssetChunk, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &types.AssetChunk{
			ID:         uuid.New(),
			AssetID:    assetID,
			ChunkIndex: i,
			Text:       fmt.Sprintf("chunk-%d", i),
			VectorID:   fmt.Sprintf("%s-%d", assetID, i),
		})
	}
	if n == 0 {
		return out
	}
	if err := tx.WithContext(ctx).CreateInBatches(out, 100).Error; err != nil {
		tb.Fatalf("seed chunks: %v", err)
	}
	return out
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, threadID, userID uuid.UUID, seq int64, parts string) *types.ChatMessage {
	tb.Helper()
	m := &types.ChatMessage{
		ID:       uuid.New(),
		ThreadID: threadID,
		UserID:   userID,
		Seq:      seq,
		Role:     "user",
		Parts:    datatypes.JSON([]byte(parts)),
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	return m
}
