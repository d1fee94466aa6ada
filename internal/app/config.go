package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/knowledge-backend/internal/platform/envutil"
	"github.com/yungbote/knowledge-backend/internal/platform/logger"
	"github.com/yungbote/knowledge-backend/internal/platform/vectorstore"
	"github.com/yungbote/knowledge-backend/internal/services"
)

type PostgresConfig struct {
	DSN         string `yaml:"dsn" toml:"dsn"`
	Host        string `yaml:"host" toml:"host"`
	Port        string `yaml:"port" toml:"port"`
	User        string `yaml:"user" toml:"user"`
	Password    string `yaml:"password" toml:"password"`
	Name        string `yaml:"name" toml:"name"`
	SSLMode     string `yaml:"sslmode" toml:"sslmode"`
	AutoMigrate bool   `yaml:"auto_migrate" toml:"auto_migrate"`
}

type VectorConfig struct {
	Provider        string        `yaml:"provider" toml:"provider" validate:"oneof=pinecone qdrant pgvector disabled"`
	BatchSize       int           `yaml:"delete_batch_size" toml:"delete_batch_size" validate:"min=1,max=500"`
	RatePerSecond   float64       `yaml:"delete_rps" toml:"delete_rps" validate:"min=0"`
	NamespacePrefix string        `yaml:"namespace_prefix" toml:"namespace_prefix"`
	Timeout         time.Duration `yaml:"timeout" toml:"timeout" validate:"min=0"`

	PineconeAPIKey     string `yaml:"pinecone_api_key" toml:"pinecone_api_key"`
	PineconeAPIVersion string `yaml:"pinecone_api_version" toml:"pinecone_api_version"`
	PineconeBaseURL    string `yaml:"pinecone_base_url" toml:"pinecone_base_url"`
	PineconeIndexName  string `yaml:"pinecone_index_name" toml:"pinecone_index_name"`
	PineconeIndexHost  string `yaml:"pinecone_index_host" toml:"pinecone_index_host"`

	QdrantURL        string `yaml:"qdrant_url" toml:"qdrant_url"`
	QdrantAPIKey     string `yaml:"qdrant_api_key" toml:"qdrant_api_key"`
	QdrantCollection string `yaml:"qdrant_collection" toml:"qdrant_collection"`

	PGVectorDSN   string `yaml:"pgvector_dsn" toml:"pgvector_dsn"`
	PGVectorTable string `yaml:"pgvector_table" toml:"pgvector_table"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password" toml:"password"`
	DB       int    `yaml:"db" toml:"db" validate:"min=0"`
	Channel  string `yaml:"channel" toml:"channel"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled" toml:"enabled"`
	Exporter    string  `yaml:"exporter" toml:"exporter" validate:"omitempty,oneof=otlp stdout"`
	Endpoint    string  `yaml:"endpoint" toml:"endpoint"`
	Insecure    bool    `yaml:"insecure" toml:"insecure"`
	Headers     string  `yaml:"headers" toml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio" validate:"min=0,max=1"`
}

type Config struct {
	LogMode     string `yaml:"log_mode" toml:"log_mode" validate:"oneof=production development test"`
	HTTPAddr    string `yaml:"http_addr" toml:"http_addr" validate:"required"`
	ServiceName string `yaml:"service_name" toml:"service_name" validate:"required"`
	Environment string `yaml:"environment" toml:"environment"`
	Version     string `yaml:"version" toml:"version"`

	// JWTSecretKey is required only when serving HTTP.
	JWTSecretKey string `yaml:"jwt_secret_key" toml:"jwt_secret_key"`

	DeleteConcurrency int `yaml:"delete_concurrency" toml:"delete_concurrency" validate:"min=1,max=32"`

	MetricsEnabled     bool     `yaml:"metrics_enabled" toml:"metrics_enabled"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" toml:"cors_allowed_origins"`

	Postgres PostgresConfig `yaml:"postgres" toml:"postgres"`
	Vector   VectorConfig   `yaml:"vector" toml:"vector"`
	Redis    RedisConfig    `yaml:"redis" toml:"redis"`
	Otel     OtelConfig     `yaml:"otel" toml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode:           "development",
		HTTPAddr:          ":8080",
		ServiceName:       "knowledge-backend",
		Environment:       "local",
		DeleteConcurrency: 1,
		MetricsEnabled:    true,
		Postgres: PostgresConfig{
			Host:        "localhost",
			Port:        "5432",
			User:        "postgres",
			Name:        "knowledge",
			SSLMode:     "disable",
			AutoMigrate: true,
		},
		Vector: VectorConfig{
			Provider:      vectorstore.ProviderDisabled,
			BatchSize:     services.DefaultVectorDeleteBatchSize,
			Timeout:       30 * time.Second,
			PGVectorTable: "asset_embeddings",
		},
		Redis: RedisConfig{Channel: "assets"},
		Otel:  OtelConfig{SampleRatio: 1},
	}
}

// LoadConfig layers defaults, the optional CONFIG_FILE and environment variables, then validates.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		log.Info("Loaded config file", "path", path)
	}

	applyEnv(log, &cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	case ".toml":
		err = toml.Unmarshal(raw, cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(log *logger.Logger, cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode, log)
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr, log)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName, log)
	cfg.Environment = envutil.String("APP_ENV", cfg.Environment, log)
	cfg.Version = envutil.String("APP_VERSION", cfg.Version, log)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey, log)
	cfg.DeleteConcurrency = envutil.Int("DELETE_CONCURRENCY", cfg.DeleteConcurrency, log)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled, log)
	if origins := envutil.String("CORS_ALLOWED_ORIGINS", "", log); origins != "" {
		cfg.CORSAllowedOrigins = splitList(origins)
	}

	pg := &cfg.Postgres
	pg.DSN = envutil.String("POSTGRES_DSN", pg.DSN, log)
	pg.Host = envutil.String("POSTGRES_HOST", pg.Host, log)
	pg.Port = envutil.String("POSTGRES_PORT", pg.Port, log)
	pg.User = envutil.String("POSTGRES_USER", pg.User, log)
	pg.Password = envutil.String("POSTGRES_PASSWORD", pg.Password, log)
	pg.Name = envutil.String("POSTGRES_NAME", pg.Name, log)
	pg.SSLMode = envutil.String("POSTGRES_SSLMODE", pg.SSLMode, log)
	pg.AutoMigrate = envutil.Bool("DB_AUTO_MIGRATE", pg.AutoMigrate, log)

	v := &cfg.Vector
	v.Provider = strings.ToLower(envutil.String("VECTOR_PROVIDER", v.Provider, log))
	v.BatchSize = envutil.Int("VECTOR_DELETE_BATCH_SIZE", v.BatchSize, log)
	v.RatePerSecond = envutil.Float("VECTOR_DELETE_RPS", v.RatePerSecond, log)
	v.NamespacePrefix = envutil.String("VECTOR_NAMESPACE_PREFIX", v.NamespacePrefix, log)
	v.Timeout = envutil.Duration("VECTOR_TIMEOUT", v.Timeout, log)
	v.PineconeAPIKey = envutil.String("PINECONE_API_KEY", v.PineconeAPIKey, log)
	v.PineconeAPIVersion = envutil.String("PINECONE_API_VERSION", v.PineconeAPIVersion, log)
	v.PineconeBaseURL = envutil.String("PINECONE_BASE_URL", v.PineconeBaseURL, log)
	v.PineconeIndexName = envutil.String("PINECONE_INDEX_NAME", v.PineconeIndexName, log)
	v.PineconeIndexHost = envutil.String("PINECONE_INDEX_HOST", v.PineconeIndexHost, log)
	v.QdrantURL = envutil.String("QDRANT_URL", v.QdrantURL, log)
	v.QdrantAPIKey = envutil.String("QDRANT_API_KEY", v.QdrantAPIKey, log)
	v.QdrantCollection = envutil.String("QDRANT_COLLECTION", v.QdrantCollection, log)
	v.PGVectorDSN = envutil.String("PGVECTOR_DSN", v.PGVectorDSN, log)
	v.PGVectorTable = envutil.String("PGVECTOR_TABLE", v.PGVectorTable, log)

	r := &cfg.Redis
	r.Addr = envutil.String("REDIS_ADDR", r.Addr, log)
	r.Password = envutil.String("REDIS_PASSWORD", r.Password, log)
	r.DB = envutil.Int("REDIS_DB", r.DB, log)
	r.Channel = envutil.String("REDIS_CHANNEL", r.Channel, log)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled, log)
	o.Exporter = strings.ToLower(envutil.String("OTEL_EXPORTER", o.Exporter, log))
	o.Endpoint = envutil.String("OTEL_ENDPOINT", o.Endpoint, log)
	o.Insecure = envutil.Bool("OTEL_INSECURE", o.Insecure, log)
	o.Headers = envutil.String("OTEL_HEADERS", o.Headers, log)
	o.SampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", o.SampleRatio, log)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
