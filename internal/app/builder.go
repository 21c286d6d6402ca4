package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/EgorLis/my-records/internal/config"
	"github.com/EgorLis/my-records/internal/domain"
	"github.com/EgorLis/my-records/internal/infra/cache/recordcache"
	redisx "github.com/EgorLis/my-records/internal/infra/cache/redis"
	"github.com/EgorLis/my-records/internal/infra/database/memory"
	"github.com/EgorLis/my-records/internal/infra/database/postgres"
	fsstorage "github.com/EgorLis/my-records/internal/infra/storage/fs"
	s3storage "github.com/EgorLis/my-records/internal/infra/storage/s3"
	"github.com/EgorLis/my-records/internal/transport/web"
)

type App struct {
	config  *config.Config
	server  *web.Server
	log     *log.Logger
	storage domain.BlobStore
	repo    domain.RecordsRepo
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	return build(ctx, cfg, base)
}

func build(ctx context.Context, cfg *config.Config, base *log.Logger) (*App, error) {
	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())

	repo, err := newRepo(ctx, cfg, base)
	if err != nil {
		return nil, err
	}

	storage, err := newStorage(ctx, cfg, base)
	if err != nil {
		repo.Close()
		return nil, err
	}

	// Redis опционален: без REDIS_ADDR записи читаются напрямую из репозитория
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		base.Println("init Redis")
		redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
		rc := redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, redisLog)
		if err := rc.Ping(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed init redis: %w", err)
		}
		cache = rc
		repo = recordcache.New(repo, rc, cfg.CacheTTL, redisLog)
		base.Println("Redis is initialized")
	}

	base.Println("init Server")
	server := web.New(serverLog, cfg, web.Deps{Records: repo, Storage: storage, Cache: cache})
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:  cfg,
		server:  server,
		log:     base,
		storage: storage,
		repo:    repo}, nil
}

func newRepo(ctx context.Context, cfg *config.Config, base *log.Logger) (domain.RecordsRepo, error) {
	switch cfg.DBDriver {
	case config.DriverMemory:
		base.Println("init in-memory repository")
		return memory.NewRepo(log.New(base.Writer(), base.Prefix()+"[memory] ", base.Flags())), nil
	default:
		base.Println("init PostgreSQL")
		pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
		pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme)
		if err != nil {
			return nil, fmt.Errorf("failed init postgres: %w", err)
		}
		base.Println("PostgreSQL is initialized")
		return pgRepo, nil
	}
}

func newStorage(ctx context.Context, cfg *config.Config, base *log.Logger) (domain.BlobStore, error) {
	switch cfg.StoreBackend {
	case config.BackendS3:
		base.Println("init S3 storage")
		s3Log := log.New(base.Writer(), base.Prefix()+"[s3] ", base.Flags())
		s3, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:    cfg.S3Endpoint,
			Region:      cfg.S3Region,
			Bucket:      cfg.S3Bucket,
			AccessKey:   cfg.S3AccessKey,
			SecretKey:   cfg.S3SecretKey,
			UseSSL:      cfg.S3UseSSL,
			PathStyle:   cfg.S3PathStyle,
			MaxAttempts: cfg.StoreMaxAttempts,
		}, s3Log)
		if err != nil {
			return nil, fmt.Errorf("failed init s3: %w", err)
		}
		return s3, nil
	default:
		base.Println("init filesystem storage")
		fsLog := log.New(base.Writer(), base.Prefix()+"[fs] ", base.Flags())
		fs, err := fsstorage.New(fsstorage.Config{
			Root:        cfg.StoreDir,
			MaxAttempts: cfg.StoreMaxAttempts,
		}, fsLog)
		if err != nil {
			return nil, fmt.Errorf("failed init fs storage: %w", err)
		}
		return fs, nil
	}
}

// Handler: собранный HTTP-обработчик, для тестов
func (a *App) Handler() http.Handler { return a.server.Handler() }

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	// recordcache.Repo закрывает и Redis
	a.repo.Close()

	return nil
}
