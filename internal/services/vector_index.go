package services

import (
	"context"
	"strings"

	"golang.org/x/time/rate"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

// DefaultVectorDeleteBatchSize is the largest id batch the managed index accepts.
const DefaultVectorDeleteBatchSize = 500

type VectorIndexClient interface {
	// DeleteMany removes ids from namespace in sequential batches and returns how many
	// ids were submitted. The first failing batch stops the rest with *IndexDeleteError.
	DeleteMany(ctx context.Context, namespace string, ids []string) (int, error)
}

type VectorIndexConfig struct {
	BatchSize int
	// RatePerSecond paces batch calls; zero disables pacing.
	RatePerSecond float64
}

type vectorIndexClient struct {
	log       *logger.Logger
	store     vectorstore.VectorStore
	batchSize int
	limiter   *rate.Limiter
}

func NewVectorIndexClient(baseLog *logger.Logger, store vectorstore.VectorStore, cfg VectorIndexConfig) VectorIndexClient {
	batchSize := cfg.BatchSize
	if batchSize <= 0 || batchSize > DefaultVectorDeleteBatchSize {
		batchSize = DefaultVectorDeleteBatchSize
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &vectorIndexClient{
		log:       baseLog.With("service", "VectorIndexClient"),
		store:     store,
		batchSize: batchSize,
		limiter:   limiter,
	}
}

func (c *vectorIndexClient) DeleteMany(ctx context.Context, namespace string, ids []string) (int, error) {
	unique := normalizeVectorIDs(ids)
	if len(unique) == 0 {
		return 0, nil
	}
	batches := splitBatches(unique, c.batchSize)
	if c.store == nil {
		return 0, &IndexDeleteError{BatchIndex: 0, BatchCount: len(batches), Cause: errVectorStoreUnavailable}
	}

	applied := 0
	for i, batch := range batches {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return applied, &IndexDeleteError{BatchIndex: i, BatchCount: len(batches), Attempted: applied, Cause: err}
			}
		}
		if err := c.store.DeleteIDs(ctx, namespace, batch); err != nil {
			c.log.Warn("Vector delete batch failed",
				"namespace", namespace,
				"batch", i+1,
				"batches", len(batches),
				"batch_size", len(batch),
				"error", err,
			)
			return applied, &IndexDeleteError{BatchIndex: i, BatchCount: len(batches), Attempted: applied, Cause: err}
		}
		applied += len(batch)
	}
	c.log.Debug("Vector ids deleted", "namespace", namespace, "count", applied, "batches", len(batches))
	return applied, nil
}

// normalizeVectorIDs drops blanks and repeats while keeping first-seen order.
func normalizeVectorIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func splitBatches(ids []string, size int) [][]string {
	if size <= 0 {
		size = DefaultVectorDeleteBatchSize
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
