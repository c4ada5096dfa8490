package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/digital-seva/internal/config"
	"github.com/kirillkom/digital-seva/internal/core/domain"
	"github.com/kirillkom/digital-seva/internal/core/ports"
	lrucache "github.com/kirillkom/digital-seva/internal/infrastructure/cache/lru"
	rediscache "github.com/kirillkom/digital-seva/internal/infrastructure/cache/redis"
	"github.com/kirillkom/digital-seva/internal/infrastructure/llm/codegpt"
	"github.com/kirillkom/digital-seva/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/digital-seva/internal/infrastructure/llm/ollama"
	mongorepo "github.com/kirillkom/digital-seva/internal/infrastructure/repository/mongo"
	"github.com/kirillkom/digital-seva/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/digital-seva/internal/infrastructure/resilience"
	"github.com/kirillkom/digital-seva/internal/infrastructure/storage/localfs"
	s3storage "github.com/kirillkom/digital-seva/internal/infrastructure/storage/s3"
)

type store struct {
	users     ports.UserRepository
	documents ports.DocumentRepository
	bookmarks ports.BookmarkRepository
	close     func()
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &store{
			users:     postgres.NewUserRepository(db),
			documents: postgres.NewDocumentRepository(db),
			bookmarks: postgres.NewBookmarkRepository(db),
			close:     func() { _ = db.Close() },
		}, nil
	case "mongo":
		client, db, err := mongorepo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
		return &store{
			users:     mongorepo.NewUserRepository(db),
			documents: mongorepo.NewDocumentRepository(db),
			bookmarks: mongorepo.NewBookmarkRepository(db),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = client.Disconnect(ctx)
			},
		}, nil
	default:
		return nil, unknownDriver("STORE_DRIVER", cfg.StoreDriver)
	}
}

func newObjectStorage(ctx context.Context, cfg config.Config) (ports.ObjectStorage, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "local":
		storage, err := localfs.New(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case "s3":
		storage, err := s3storage.New(ctx, cfg.S3Bucket, s3storage.Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return storage, nil
	default:
		return nil, unknownDriver("STORAGE_DRIVER", cfg.StorageDriver)
	}
}

const (
	profileCachePrefix     = "seva:profile:"
	translationCachePrefix = "seva:translation:"
)

func newCaches(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.Cache[domain.Profile], ports.Cache[string], func(), error) {
	switch strings.ToLower(cfg.CacheDriver) {
	case "memory":
		return lrucache.New[domain.Profile](cfg.CacheSize, cfg.CacheTTL),
			lrucache.New[string](cfg.CacheSize, cfg.CacheTTL),
			func() {}, nil
	case "redis":
		client, err := rediscache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return rediscache.New[domain.Profile](client, profileCachePrefix, cfg.CacheTTL, logger),
			rediscache.New[string](client, translationCachePrefix, cfg.CacheTTL, logger),
			func() { _ = client.Close() }, nil
	default:
		return nil, nil, nil, unknownDriver("CACHE_DRIVER", cfg.CacheDriver)
	}
}

func newCompletionClient(ctx context.Context, cfg config.Config) (ports.CompletionClient, func(), error) {
	executor := resilience.NewExecutor(aiPolicy(cfg))
	switch strings.ToLower(cfg.AIProvider) {
	case "codegpt":
		return codegpt.New(cfg.AIURL, codegpt.Options{
			APIKey:             cfg.CodeGPTAPIKey,
			OrgID:              cfg.CodeGPTOrgID,
			HTTPClient:         &http.Client{Timeout: 2 * cfg.AITimeout},
			ResilienceExecutor: executor,
		}), func() {}, nil
	case "gemini":
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, gemini.Options{
			Model:              cfg.GeminiModel,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, nil, err
		}
		return client, func() { _ = client.Close() }, nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, ollama.Options{
			Model:              cfg.OllamaModel,
			HTTPClient:         &http.Client{Timeout: 2 * cfg.AITimeout},
			ResilienceExecutor: executor,
		}), func() {}, nil
	default:
		return nil, nil, unknownDriver("AI_PROVIDER", cfg.AIProvider)
	}
}
