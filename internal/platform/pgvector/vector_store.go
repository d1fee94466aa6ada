package pgvector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

type Config struct {
	ConnString      string
	TableName       string
	NamespacePrefix string
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// VectorStore deletes embeddings held in a pgvector table keyed by (namespace, id).
type VectorStore struct {
	log      *logger.Logger
	cfg      Config
	pool     *pgxpool.Pool
	db       execer
	nsPrefix string
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*VectorStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.ConnString) == "" {
		return nil, fmt.Errorf("missing PGVECTOR_DSN")
	}
	if cfg.TableName == "" {
		cfg.TableName = "asset_embeddings"
	}
	if !tableNamePattern.MatchString(cfg.TableName) {
		return nil, fmt.Errorf("invalid PGVECTOR_TABLE %q", cfg.TableName)
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pgvector database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgvector ping failed: %w", err)
	}

	log.Info("pgvector store selected", "provider", vectorstore.ProviderPGVector, "table", cfg.TableName)
	return &VectorStore{
		log:      log.With("service", "PGVectorStore"),
		cfg:      cfg,
		pool:     pool,
		db:       pool,
		nsPrefix: strings.TrimSpace(cfg.NamespacePrefix),
	}, nil
}

func (vs *VectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if vs == nil || vs.db == nil {
		return fmt.Errorf("vector store unavailable")
	}
	if len(ids) == 0 {
		return nil
	}
	ns := vectorstore.Qualify(vs.nsPrefix, namespace)
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE namespace = $1 AND id = ANY($2)`, vs.cfg.TableName)
	tag, err := vs.db.Exec(ctx, stmt, ns, ids)
	if err != nil {
		return fmt.Errorf("pgvector delete: %w", err)
	}
	vs.log.Debug("Deleted vectors", "namespace", ns, "requested", len(ids), "deleted", tag.RowsAffected())
	return nil
}

func (vs *VectorStore) Close() {
	if vs != nil && vs.pool != nil {
		vs.pool.Close()
	}
}
