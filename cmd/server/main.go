package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authHandlers "campaign-server/internal/auth/handlers"
	"campaign-server/internal/campaign"
	"campaign-server/internal/mapeditor"
	"campaign-server/internal/middleware"
	"campaign-server/internal/server"
	serverHandlers "campaign-server/internal/server/handlers"
	"campaign-server/internal/shared/config"
	"campaign-server/internal/shared/database"
	"campaign-server/internal/shared/logger"
	"campaign-server/internal/shared/redis"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.GlobalConfig); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

// storage is the selected map backend plus whatever must be closed on exit.
type storage struct {
	kv     mapeditor.KVStore
	pinger serverHandlers.Pinger
	close  func() error
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	logger := slog.With("component", "main", "operation", "open_storage", "backend", cfg.Storage.Backend)

	switch cfg.Storage.Backend {
	case config.StorageBackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Saving maps to Redis", "key_prefix", cfg.Redis.KeyPrefix)
		return &storage{
			kv:     mapeditor.NewRedisKV(client, cfg.Redis.KeyPrefix),
			pinger: client,
			close:  client.Close,
		}, nil

	case config.StorageBackendPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("Saving maps to PostgreSQL")
		return &storage{
			kv:     mapeditor.NewPostgresKV(db),
			pinger: db,
			close:  db.Close,
		}, nil

	default:
		logger.Info("Saving maps in memory, saved maps are lost on restart")
		return &storage{
			kv:    mapeditor.NewMemoryKV(),
			close: func() error { return nil },
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := slog.With("component", "main")

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	campaignStore := campaign.NewStore(slog.Default())
	campaignService := campaign.NewService(campaignStore, slog.Default())

	mapService := mapeditor.NewService(store.kv, mapeditor.Options{
		HistorySize:      cfg.Editor.HistorySize,
		MinDistance:      cfg.Editor.MinDistance,
		GridSize:         cfg.Editor.GridSize,
		EnforcePlacement: cfg.Editor.EnforcePlacement,
	}, cfg.Editor.AutoSaveDelay, slog.Default())

	health := serverHandlers.NewHealthHandler(cfg.Storage.Backend, store.pinger, campaignStore.Counts)
	session := authHandlers.NewSessionHandler(cfg)
	mux := server.NewRoutes(mapService, campaignService, health, session, cfg.Auth, slog.Default()).Setup()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	cors := middleware.NewCORS(cfg.Frontend)

	var handler http.Handler = mux
	handler = rateLimiter.Middleware(handler)
	handler = cors.Middleware(handler)
	handler = middleware.RequestLogger(handler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Campaign server starting",
			"addr", srv.Addr,
			"environment", cfg.Server.Environment,
			"storage", cfg.Storage.Backend,
			"auth_enabled", cfg.Auth.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return rateLimiter.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		mapService.Close(shutdownCtx)
		return err
	})

	return g.Wait()
}
