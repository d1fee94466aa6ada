package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/knowledge-backend/internal/http"
	httpH "github.com/yungbote/knowledge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/knowledge-backend/internal/http/middleware"
	"github.com/yungbote/knowledge-backend/internal/observability"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Asset  *httpH.AssetHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Asset:  httpH.NewAssetHandler(log, services.AssetDeleter),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AuthMiddleware: middleware.Auth,
		AssetHandler:   handlers.Asset,
		HealthHandler:  handlers.Health,
	})
}
