package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpHandler "github.com/anthanhphan/go-dedup-file-store/internal/server/adapter/inbound/http"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/adapter/outbound/blob"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/adapter/outbound/chunkstore"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/adapter/outbound/meta"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/config"
	"github.com/anthanhphan/go-dedup-file-store/internal/server/service"
	"github.com/anthanhphan/go-dedup-file-store/pkg/idgen"
	"github.com/anthanhphan/gosdk/logger"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg     *config.Config
	server  *httpHandler.Server
	meta    *meta.Store
	sweeper *service.Sweeper

	checkpointStop chan struct{}
	checkpointDone chan struct{}
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// 3. Initialize Redis and Snowflake IDGen
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	redisClock := idgen.NewRedisClock(redisClient)
	idGen, err := idgen.New(cfg.App.NodeID, redisClock)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake: %w", err)
	}

	// 4. Outbound adapters
	staging, err := chunkstore.NewStore(cfg.Storage.StagingDir, cfg.App.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to init chunk staging: %w", err)
	}

	blobs, err := blob.NewStore(cfg.Storage.DataDir, cfg.Storage.FSync)
	if err != nil {
		return nil, fmt.Errorf("failed to init blob store: %w", err)
	}

	metaStore, err := meta.NewStore(cfg.Storage.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init metadata store: %w", err)
	}

	// 5. Services
	svc := service.NewFileStore(cfg, staging, blobs, metaStore, idGen)
	sweeper := service.NewSweeper(svc)

	// 6. HTTP Server
	httpServer := httpHandler.NewServer(cfg, svc)

	return &App{
		cfg:            cfg,
		server:         httpServer,
		meta:           metaStore,
		sweeper:        sweeper,
		checkpointStop: make(chan struct{}),
		checkpointDone: make(chan struct{}),
	}, nil
}

func (a *App) Run() error {
	// Background loops
	go a.sweeper.Run(context.Background())
	go a.runCheckpoints()

	// Start HTTP
	logger.Infow("Dedup file store starting", "addr", a.cfg.Server.Addr)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		runErr = fmt.Errorf("http server failed: %w", err)
		logger.Errorw("Server exited unexpectedly", "error", err.Error())
	}

	logger.Info("Shutting down services")
	a.sweeper.Stop()
	close(a.checkpointStop)
	<-a.checkpointDone

	if err := a.server.Stop(context.Background()); err != nil {
		logger.Errorw("Server shutdown error", "error", err.Error())
		if runErr == nil {
			runErr = err
		}
	}

	if err := a.meta.Close(); err != nil && runErr == nil {
		runErr = err
	}

	return runErr
}

// runCheckpoints periodically snapshots the metadata store so a crash loses
// at most one interval of bookkeeping.
func (a *App) runCheckpoints() {
	defer close(a.checkpointDone)

	interval := time.Duration(a.cfg.Storage.CheckpointIntervalSec) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-a.checkpointStop:
			return
		case <-ticker.C:
			if err := a.meta.Checkpoint(); err != nil {
				logger.Warnw("Metadata checkpoint failed", "error", err.Error())
			}
		}
	}
}
