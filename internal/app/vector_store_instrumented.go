package app

import (
	"context"
	"time"

	"github.com/yungbote/knowledge-backend/internal/observability"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

type instrumentedVectorStore struct {
	provider string
	inner    vectorstore.VectorStore
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner vectorstore.VectorStore) vectorstore.VectorStore {
	if inner == nil {
		return nil
	}
	return &instrumentedVectorStore{
		provider: provider,
		inner:    inner,
		metrics:  observability.Current(),
	}
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	start := time.Now()
	err := s.inner.DeleteIDs(ctx, namespace, ids)
	s.metrics.ObserveVectorOperation(s.provider, "delete_ids", observability.StatusLabel(err), len(ids), time.Since(start))
	return err
}
