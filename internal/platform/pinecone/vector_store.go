package pinecone

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

type StoreConfig struct {
	IndexName       string
	IndexHost       string
	NamespacePrefix string
}

type vectorStore struct {
	log       *logger.Logger
	pc        Client
	indexName string
	indexHost string
	nsPrefix  string
}

func NewVectorStore(ctx context.Context, log *logger.Logger, pc Client, cfg StoreConfig) (vectorstore.VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pc == nil {
		return nil, fmt.Errorf("pinecone client required")
	}
	indexName := strings.TrimSpace(cfg.IndexName)
	if indexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}
	host := strings.TrimSpace(cfg.IndexHost)

	// If host missing, bootstrap via describe_index (fine for local/dev; avoid in prod).
	if host == "" {
		desc, err := pc.DescribeIndex(ctx, indexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index (avoid this in production)",
			"index_name", indexName,
			"index_host", host,
		)
	}

	return &vectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexName: indexName,
		indexHost: host,
		nsPrefix:  strings.TrimSpace(cfg.NamespacePrefix),
	}, nil
}

func (s *vectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil || s.pc == nil {
		return fmt.Errorf("vector store unavailable")
	}
	if len(ids) == 0 {
		return nil
	}
	ns := vectorstore.Qualify(s.nsPrefix, namespace)
	if err := s.pc.DeleteVectors(ctx, s.indexHost, DeleteRequest{Namespace: ns, IDs: ids}); err != nil {
		return err
	}
	s.log.Debug("Deleted vectors", "index_name", s.indexName, "namespace", ns, "count", len(ids))
	return nil
}
