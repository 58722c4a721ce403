// Command gosession-server runs the reference cookie-session HTTP API.
//
//	gosession-server -config gosession.yaml
//
// Settings come from the YAML file and GOSESSION_* environment variables.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/appconfig"
	"github.com/MrEthical07/goSession/internal/server"
	promexport "github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/store/memory"
	"github.com/MrEthical07/goSession/store/postgres"
	"github.com/MrEthical07/goSession/store/redisstore"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "gosession-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb redis.UniversalClient
	if cfg.NeedsRedis() {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Store.Redis.Addr},
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}

	store, closeStore, err := openStore(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionCfg, err := cfg.SessionConfig()
	if err != nil {
		return err
	}

	builder := goSession.New().
		WithConfig(sessionCfg).
		WithUserStore(store).
		WithLogger(logger)
	if rdb != nil {
		builder = builder.WithRedis(rdb)
	}
	if cfg.Audit.Enabled {
		sink, closeSink, err := auditSink(cfg.Audit, logger)
		if err != nil {
			return err
		}
		defer closeSink()
		builder = builder.WithAuditSink(sink)
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	defer engine.Close()

	var metrics http.Handler
	if cfg.Metrics.Enabled {
		metrics = promexport.NewExporter(engine).Handler()
	}

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(engine, logger, cfg.CookieOptions(), metrics).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *appconfig.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())
	return zcfg.Build()
}

func openStore(ctx context.Context, cfg *appconfig.Config, rdb redis.UniversalClient) (goSession.UserStore, func(), error) {
	switch cfg.Store.Driver {
	case appconfig.DriverRedis:
		return redisstore.New(rdb, cfg.Store.Redis.Prefix), func() {}, nil
	case appconfig.DriverPostgres:
		pg, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Store.Postgres.DSN,
			MaxConns:       cfg.Store.Postgres.MaxConns,
			MigrateOnStart: cfg.Store.Postgres.Migrate,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func auditSink(cfg appconfig.AuditConfig, logger *zap.Logger) (goSession.AuditSink, func(), error) {
	zapSink := goSession.NewZapSink(logger.Named("audit"))
	if cfg.JSONPath == "" {
		return zapSink, func() {}, nil
	}
	f, err := os.OpenFile(cfg.JSONPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("audit log: %w", err)
	}
	return goSession.MultiSink{zapSink, goSession.NewJSONWriterSink(f)}, func() { _ = f.Close() }, nil
}
