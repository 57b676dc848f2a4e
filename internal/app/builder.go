package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mandirapp/daily-darshan/internal/auth/password"
	"github.com/mandirapp/daily-darshan/internal/auth/token"
	"github.com/mandirapp/daily-darshan/internal/config"
	"github.com/mandirapp/daily-darshan/internal/darshan"
	"github.com/mandirapp/daily-darshan/internal/domain"
	redisx "github.com/mandirapp/daily-darshan/internal/infra/cache/redis"
	"github.com/mandirapp/daily-darshan/internal/infra/database/postgres"
	localstorage "github.com/mandirapp/daily-darshan/internal/infra/storage/local"
	s3storage "github.com/mandirapp/daily-darshan/internal/infra/storage/s3"
	"github.com/mandirapp/daily-darshan/internal/transport/web"
)

type App struct {
	config  *config.Config
	server  *web.Server
	sweeper *darshan.Sweeper
	log     *log.Logger
	storage domain.BlobStorage
	cache   domain.Cache
	repo    *postgres.PGRepo
}

func Build(ctx context.Context) (*App, error) {
	base := log.New(os.Stdout, "[app] ", log.LstdFlags)

	serverLog := log.New(base.Writer(), base.Prefix()+"[server] ", base.Flags())
	pgLog := log.New(base.Writer(), base.Prefix()+"[postgres] ", base.Flags())
	storageLog := log.New(base.Writer(), base.Prefix()+"[storage] ", base.Flags())
	redisLog := log.New(base.Writer(), base.Prefix()+"[redis] ", base.Flags())
	engineLog := log.New(base.Writer(), base.Prefix()+"[darshan] ", base.Flags())
	sweepLog := log.New(base.Writer(), base.Prefix()+"[sweeper] ", base.Flags())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base.Printf("\n  configuration: %s-------------------", cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("bad timezone %q: %w", cfg.Timezone, err)
	}

	base.Println("init PostgreSQL")
	pgRepo, err := postgres.NewPGRepo(ctx, pgLog, cfg.GetDSN(), cfg.DBScheme, loc)
	if err != nil {
		return nil, fmt.Errorf("failed init postgres: %w", err)
	}
	base.Println("PostgreSQL is initialized")

	base.Printf("init blob storage (%s)", cfg.StorageDriver)
	var (
		storage   domain.BlobStorage
		staticDir string
	)
	switch cfg.StorageDriver {
	case "local":
		ls, err := localstorage.New(localstorage.Config{
			Root:         cfg.UploadsDir,
			PublicPrefix: cfg.PublicPrefix,
		}, storageLog)
		if err != nil {
			return nil, fmt.Errorf("failed init local storage: %w", err)
		}
		storage, staticDir = ls, ls.Root()
	case "s3":
		s3, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UseSSL:       cfg.S3UseSSL,
			PathStyle:    cfg.S3PathStyle,
			PublicPrefix: cfg.PublicPrefix,
		}, storageLog)
		if err != nil {
			return nil, fmt.Errorf("failed init s3: %w", err)
		}
		storage = s3
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	base.Println("init Redis")
	rc := redisx.New(redisx.Config{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	}, redisLog)
	if err := rc.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed init redis: %w", err)
	}
	base.Println("Redis is initialized")

	// Auth primitives
	hasher := password.NewDefault()
	tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer)

	if err := bootstrapAdmin(ctx, base, pgRepo, hasher, cfg); err != nil {
		return nil, err
	}

	base.Println("init darshan engine")
	svc := darshan.NewService(engineLog, pgRepo, storage, loc,
		darshan.WithCache(rc, cfg.DarshanTTL))
	sweeper := darshan.NewSweeper(sweepLog, svc, cfg.SweepInterval, cfg.Retention)

	base.Println("init Server")
	rep := web.Repos{Temples: pgRepo, Darshans: pgRepo, Admins: pgRepo}
	auth := web.AuthDeps{Hasher: hasher, Tokens: tm}
	server := web.New(serverLog, cfg, rep, auth, svc, pgRepo, rc, storage, loc, staticDir)
	base.Println("Server is initialized")

	base.Println("build ended")
	return &App{
		config:  cfg,
		server:  server,
		sweeper: sweeper,
		log:     base,
		storage: storage,
		repo:    pgRepo,
		cache:   rc}, nil
}

// bootstrapAdmin creates the configured admin account on first start so the
// back office is reachable without manual SQL.
func bootstrapAdmin(ctx context.Context, logger *log.Logger, admins domain.AdminsRepo,
	hasher domain.PasswordHasher, cfg *config.Config) error {

	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logger.Println("admin bootstrap skipped: no credentials configured")
		return nil
	}
	if !domain.ValidUsername(cfg.AdminUsername) || !domain.ValidPassword(cfg.AdminPassword) {
		return errors.New("admin bootstrap: bad username or password")
	}

	_, err := admins.AdminByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil // already there
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("admin bootstrap lookup: %w", err)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("admin bootstrap hash: %w", err)
	}
	if _, err := admins.CreateAdmin(ctx, cfg.AdminUsername, hash); err != nil {
		return fmt.Errorf("admin bootstrap create: %w", err)
	}
	logger.Printf("admin %q created", cfg.AdminUsername)
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Println("start application...")
	a.sweeper.Start()
	go a.server.Run()
	<-ctx.Done()
	a.log.Println("stop application...")

	a.sweeper.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.repo.Close()
	a.cache.Close()

	return nil
}
