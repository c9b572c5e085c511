package app

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"go-task-manager/internal/authclient"
	"go-task-manager/internal/config"
	"go-task-manager/internal/database"
	"go-task-manager/internal/handler"
	"go-task-manager/internal/logger"
	"go-task-manager/internal/metrics"
	"go-task-manager/internal/middleware"
	"go-task-manager/internal/repository"
	"go-task-manager/internal/router"
	"go-task-manager/internal/service"
	"go-task-manager/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

// NewAuth wires the identity service.
func NewAuth() (*App, error) {
	cfg, err := config.LoadAuth()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, cfg.SlogLevel(), string(cfg.Role)))

	db, err := openDatabase(cfg, database.SchemaAuth)
	if err != nil {
		return nil, err
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	codec, err := token.New(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	authService, err := service.NewAuthService(userRepo, auditRepo, codec, service.NewBcryptHasher(cfg.BcryptCost), collector)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}

	appRouter := router.NewAuthRouter(cfg, collector, router.AuthHandlers{
		Auth:    handler.NewAuthHandler(authService, cfg.MaxBodyBytes),
		Health:  handler.NewHealthHandler(db, string(cfg.Role)),
		Metrics: metrics.Handler(registry),
	})

	return &App{
		server: newServer(cfg, appRouter),
		cleanupFuncs: []func(){
			db.Close,
		},
	}, nil
}

// NewTask wires the task service and its gateway to the identity service.
func NewTask() (*App, error) {
	cfg, err := config.LoadTask()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogFormat, cfg.SlogLevel(), string(cfg.Role)))

	db, err := openDatabase(cfg, database.SchemaTask)
	if err != nil {
		return nil, err
	}
	cleanups := []func(){db.Close}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	var verifier authclient.Verifier = authclient.New(cfg.AuthServiceURL, cfg.VerifyTimeout, nil)
	if cfg.RedisAddr != "" && cfg.VerifyCacheTTL > 0 {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := rdb.Ping(ctx).Err()
		cancel()
		if pingErr != nil {
			// the cache is optional; verification still happens upstream
			slog.Warn("redis unavailable, verify cache disabled", "addr", cfg.RedisAddr, "error", pingErr)
			_ = rdb.Close()
		} else {
			slog.Info("verify cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.VerifyCacheTTL)
			verifier = authclient.NewCachingVerifier(verifier, authclient.NewRedisCache(rdb), cfg.VerifyCacheTTL)
			cleanups = append(cleanups, func() { _ = rdb.Close() })
		}
	}

	taskService := service.NewTaskService(repository.NewTaskRepository(db.Pool), collector)
	gateway := middleware.NewGateway(verifier, collector)

	appRouter := router.NewTaskRouter(cfg, collector, gateway, router.TaskHandlers{
		Task:    handler.NewTaskHandler(taskService, cfg.MaxBodyBytes),
		Health:  handler.NewHealthHandler(db, string(cfg.Role)),
		Metrics: metrics.Handler(registry),
	})

	slog.Info("identity service configured", "url", cfg.AuthServiceURL, "verify_timeout", cfg.VerifyTimeout)

	return &App{
		server:       newServer(cfg, appRouter),
		cleanupFuncs: cleanups,
	}, nil
}

func openDatabase(cfg *config.Config, schema database.Schema) (*database.DB, error) {
	slog.Info("applying migrations", "schema", schema)
	if err := database.Migrate(cfg.DatabaseURL, schema); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database ready")
	return db, nil
}

func newServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}
