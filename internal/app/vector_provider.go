package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/knowledge-backend/internal/observability"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/pgvector"
	"github.com/yungbote/knowledge-backend/internal/platform/pinecone"
	"github.com/yungbote/knowledge-backend/internal/platform/qdrant"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
)

var (
	newPineconeClient      = pinecone.New
	newPineconeVectorStore = pinecone.NewVectorStore
	newQdrantVectorStore   = qdrant.NewVectorStore
	newPGVectorStore       = func(ctx context.Context, log *logger.Logger, cfg pgvector.Config) (vectorstore.VectorStore, func(), error) {
		vs, err := pgvector.New(ctx, log, cfg)
		if err != nil {
			return nil, nil, err
		}
		return vs, vs.Close, nil
	}
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider      VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL     VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL     VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl    VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorQdrantConfigFailed   VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed        VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed   VectorProviderBootstrapErrorCode = "provider_init_failed"
	VectorProviderBootstrapCodeDisabledMissingAPIKey VectorProviderBootstrapErrorCode = "disabled_missing_api_key"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStoreProvider builds the configured provider. A nil store with a nil error
// means deletion runs without an index; assets that own chunks then fail index_delete_failed.
// The returned close func is never nil.
func resolveVectorStoreProvider(ctx context.Context, log *logger.Logger, cfg VectorConfig) (vectorstore.VectorStore, func(), error) {
	noop := func() {}
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	metrics := observability.Current()

	fail := func(err error) (vectorstore.VectorStore, func(), error) {
		classified := classifyVectorProviderBootstrapError(provider, err)
		code := vectorProviderBootstrapErrorCode(classified)
		metrics.ObserveVectorProviderBootstrap(provider, "error", string(code))
		log.Error("Vector store provider bootstrap failed",
			"provider", provider,
			"error_code", code,
			"error", classified,
		)
		return nil, noop, classified
	}
	succeed := func(vs vectorstore.VectorStore, closeFn func()) (vectorstore.VectorStore, func(), error) {
		metrics.ObserveVectorProviderBootstrap(provider, "success", "none")
		metrics.SetVectorProviderActive(provider)
		if closeFn == nil {
			closeFn = noop
		}
		return instrumentVectorStore(provider, vs), closeFn, nil
	}

	log.Info("Selecting vector store provider", "provider", provider, "namespace_prefix", cfg.NamespacePrefix)

	switch provider {
	case vectorstore.ProviderQdrant:
		vs, err := newQdrantVectorStore(ctx, log, qdrant.Config{
			URL:             strings.TrimSpace(cfg.QdrantURL),
			APIKey:          strings.TrimSpace(cfg.QdrantAPIKey),
			Collection:      strings.TrimSpace(cfg.QdrantCollection),
			NamespacePrefix: strings.TrimSpace(cfg.NamespacePrefix),
			Timeout:         cfg.Timeout,
		})
		if err != nil {
			return fail(err)
		}
		return succeed(vs, nil)

	case vectorstore.ProviderPinecone:
		if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
			log.Warn("PINECONE_API_KEY not set; vector deletes disabled")
			metrics.ObserveVectorProviderBootstrap(provider, "degraded", string(VectorProviderBootstrapCodeDisabledMissingAPIKey))
			metrics.SetVectorProviderActive(vectorstore.ProviderDisabled)
			return nil, noop, nil
		}
		pc, err := newPineconeClient(log, pinecone.Config{
			APIKey:     strings.TrimSpace(cfg.PineconeAPIKey),
			APIVersion: strings.TrimSpace(cfg.PineconeAPIVersion),
			BaseURL:    strings.TrimSpace(cfg.PineconeBaseURL),
			Timeout:    cfg.Timeout,
		})
		if err != nil {
			return fail(err)
		}
		vs, err := newPineconeVectorStore(ctx, log, pc, pinecone.StoreConfig{
			IndexName:       strings.TrimSpace(cfg.PineconeIndexName),
			IndexHost:       strings.TrimSpace(cfg.PineconeIndexHost),
			NamespacePrefix: strings.TrimSpace(cfg.NamespacePrefix),
		})
		if err != nil {
			return fail(err)
		}
		return succeed(vs, nil)

	case vectorstore.ProviderPGVector:
		vs, closeFn, err := newPGVectorStore(ctx, log, pgvector.Config{
			ConnString:      strings.TrimSpace(cfg.PGVectorDSN),
			TableName:       strings.TrimSpace(cfg.PGVectorTable),
			NamespacePrefix: strings.TrimSpace(cfg.NamespacePrefix),
		})
		if err != nil {
			return fail(err)
		}
		return succeed(vs, closeFn)

	case vectorstore.ProviderDisabled, "":
		log.Warn("Vector provider disabled; assets with indexed chunks cannot be deleted")
		metrics.SetVectorProviderActive(vectorstore.ProviderDisabled)
		return nil, noop, nil

	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		metrics.ObserveVectorProviderBootstrap(provider, "error", string(err.Code))
		log.Error("Vector store provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, noop, err
	}
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var existing *VectorProviderBootstrapError
	if errors.As(err, &existing) {
		return err
	}
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var opErr *qdrant.OperationError
	if errors.As(err, &opErr) && (opErr.Code == qdrant.OperationErrorTransportFailed || opErr.Code == qdrant.OperationErrorTimeout) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
