package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/trailpack/internal/config"
	"github.com/JonMunkholm/trailpack/internal/gearimport"
	"github.com/JonMunkholm/trailpack/internal/logging"
	"github.com/JonMunkholm/trailpack/internal/store"
	"github.com/JonMunkholm/trailpack/internal/web"
)

func main() {
	// Existing environment variables take precedence over .env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	pool, err := connectDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db := store.New(pool)
	if cfg.Database.Migrate {
		if err := db.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		slog.Info("database schema up to date")
	}

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	service := gearimport.NewService(db, sessions, gearimport.Options{
		UploadDir:      cfg.Import.UploadDir,
		MaxFileSize:    cfg.Import.MaxFileSize,
		HeaderScanRows: cfg.Import.HeaderScanRows,
		CommitTimeout:  cfg.Import.CommitTimeout,
		Limiter:        gearimport.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
	})

	server := web.NewServer(service, cfg)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Sweep.Enabled {
		sweeper := gearimport.NewSweeper(cfg.Import.UploadDir, cfg.Sweep.MaxAge, cfg.Sweep.Interval)
		go sweeper.Run(jobCtx)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}

// connectDB opens and pings the pool with the configured limits.
func connectDB(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}

// newSessionStore uses Redis when REDIS_URL is set and process memory
// otherwise. The returned func releases the client.
func newSessionStore(ctx context.Context, cfg *config.Config) (gearimport.SessionStore, func(), error) {
	if cfg.Redis.URL == "" {
		slog.Info("import sessions kept in memory")
		return gearimport.NewMemorySessionStore(cfg.Import.SessionTTL), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	slog.Info("import sessions kept in redis", "addr", opts.Addr, "prefix", cfg.Redis.Prefix)
	closeFn := func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close redis client", "error", err)
		}
	}
	return gearimport.NewRedisSessionStore(client, cfg.Import.SessionTTL, cfg.Redis.Prefix), closeFn, nil
}
