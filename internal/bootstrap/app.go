package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/llm"
	openai "resume-tailor/internal/llm/openai"
	"resume-tailor/internal/runs"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/server"
	"resume-tailor/internal/shared/storage/db"
	"resume-tailor/internal/shared/storage/object"
	localstore "resume-tailor/internal/shared/storage/object/local"
	s3store "resume-tailor/internal/shared/storage/object/s3"
	"resume-tailor/internal/shared/telemetry"
	"resume-tailor/internal/tailor"
)

// ErrLLMNotConfigured is returned by the placeholder client when no provider key is set.
var ErrLLMNotConfigured = errors.New("llm client not configured")

// App holds shared dependencies.
type App struct {
	Config  config.Config
	Log     *telemetry.Logger
	Metrics *metrics.Registry
	DB      *sql.DB
	Runs    runs.Repo
	Cache   *llm.Cache
	LLM     llm.Client
	Router  *gin.Engine
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config, log *telemetry.Logger) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	app := &App{Config: cfg, Log: log, Metrics: metrics.New()}

	sqlDB, err := buildDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB
	if sqlDB != nil {
		app.Runs = &runs.PGRepo{DB: sqlDB}
	} else {
		app.Runs = runs.NewMemoryRepo()
	}

	if cfg.CacheEnabled {
		app.Cache = llm.NewCache(cfg.CacheDir, cfg.CacheTTL,
			llm.WithCacheLogger(log),
			llm.WithCacheMetrics(app.Metrics),
		)
	}
	client, err := buildLLM(cfg, log)
	if err != nil {
		return nil, err
	}
	app.LLM = &llm.CachingClient{
		Client:      client,
		Cache:       app.Cache,
		Model:       cfg.LLMModel,
		Temperature: cfg.Temperature,
		Cacheable:   tailor.Cacheable,
	}

	app.Router = server.NewRouter(server.Deps{
		Config:  cfg,
		Log:     log,
		Metrics: app.Metrics,
		Runs:    app.Runs,
		DB:      app.DB,
	})
	return app, nil
}

// Store returns the configured object store. A local store is rooted at localRoot when it is set.
func (a *App) Store(ctx context.Context, localRoot string) (object.Store, error) {
	switch a.Config.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, a.Config.AWSRegion, a.Config.S3Bucket, a.Config.S3Prefix, a.Config.SSEKMSKeyID)
	default:
		if localRoot == "" {
			localRoot = a.Config.LocalStoreDir
		}
		return localstore.New(localRoot), nil
	}
}

// Generator returns a generator over the app's client.
func (a *App) Generator() *tailor.Generator {
	return &tailor.Generator{Client: a.LLM, Model: a.Config.LLMModel, Log: a.Log}
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config, log *telemetry.Logger) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Info("bootstrap.db.memory", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts, log)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Warn("bootstrap.db.memory", map[string]any{"reason": "connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config, log *telemetry.Logger) (llm.Client, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Warn("bootstrap.llm.placeholder", map[string]any{"provider": cfg.LLMProvider})
		return llm.Func(func(context.Context, string) (string, error) {
			return "", ErrLLMNotConfigured
		}), nil
	}
	return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.Temperature, log)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
