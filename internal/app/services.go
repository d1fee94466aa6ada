package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/observability"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	VectorIndex  services.VectorIndexClient
	Scrubber     services.ReferenceScrubber
	Notifier     services.AssetNotifier
	AssetDeleter services.AssetDeleter
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	vectorIndex := services.NewVectorIndexClient(log, clients.VectorStore, services.VectorIndexConfig{
		BatchSize:     cfg.Vector.BatchSize,
		RatePerSecond: cfg.Vector.RatePerSecond,
	})
	scrubber := services.NewReferenceScrubber(log, reposet.ChatMessage)
	notifier := services.NewAssetNotifier(log, clients.EventBus)

	return Services{
		Auth:        services.NewAuthService(log, cfg.JWTSecretKey),
		VectorIndex: vectorIndex,
		Scrubber:    scrubber,
		Notifier:    notifier,
		AssetDeleter: services.NewAssetDeleter(
			db,
			log,
			reposet.Asset,
			reposet.Chunk,
			vectorIndex,
			scrubber,
			notifier,
			metrics,
			services.AssetDeleterConfig{Concurrency: cfg.DeleteConcurrency},
		),
	}
}
