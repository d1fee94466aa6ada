package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
	"github.com/yungbote/knowledge-backend/internal/realtime/bus"
)

// Clients holds connections to the external stores the deleter talks to.
type Clients struct {
	VectorStore vectorstore.VectorStore
	EventBus    bus.Bus
	Redis       *goredis.Client

	closeVector func()
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	vs, closeVector, err := resolveVectorStoreProvider(ctx, log, cfg.Vector)
	if err != nil {
		return Clients{}, err
	}

	// Redis
	eventBus := bus.NewNoopBus()
	var rdb *goredis.Client
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		b, client, err := bus.NewRedisBus(ctx, log, bus.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
		})
		if err != nil {
			closeVector()
			return Clients{}, fmt.Errorf("init redis event bus: %w", err)
		}
		eventBus, rdb = b, client
	} else {
		log.Info("REDIS_ADDR not set; deletion events are not published")
	}

	return Clients{
		VectorStore: vs,
		EventBus:    eventBus,
		Redis:       rdb,
		closeVector: closeVector,
	}, nil
}

func (c Clients) Close() {
	if c.EventBus != nil {
		_ = c.EventBus.Close()
	}
	if c.closeVector != nil {
		c.closeVector()
	}
}
