package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/ledger-archive/internal/accounting/reports"
	"github.com/odyssey-erp/ledger-archive/internal/archive"
	jobmetrics "github.com/odyssey-erp/ledger-archive/internal/jobs"
	"github.com/odyssey-erp/ledger-archive/internal/ledger/blob"
	"github.com/odyssey-erp/ledger-archive/internal/ledger/pgstore"
	"github.com/odyssey-erp/ledger-archive/internal/platform/cache"
	"github.com/odyssey-erp/ledger-archive/internal/platform/db"
)

// Services holds the long lived dependencies shared by the archiver CLI and
// the worker.
type Services struct {
	Pool         *pgxpool.Pool
	Redis        *redis.Client
	Store        *pgstore.Store
	Requester    *cache.Requester
	Orchestrator *archive.Orchestrator
	Metrics      *jobmetrics.Metrics
	logger       *slog.Logger
}

// NewServices connects to Postgres, Redis and optional object storage and
// wires the archive orchestrator.
func NewServices(ctx context.Context, cfg *Config, logger *slog.Logger) (*Services, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, ConnMaxLifetime: cfg.PGConnMaxLifetime})
	if err != nil {
		return nil, err
	}
	svc := &Services{Pool: pool, logger: logger}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, ledger queries are not cached", slog.Any("error", err))
	} else {
		svc.Redis = redisClient
	}

	var content pgstore.ContentSource
	if cfg.ObjectStorageEnabled() {
		objects, err := blob.New(blob.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			svc.Close()
			return nil, err
		}
		if err := objects.Ping(ctx); err != nil {
			logger.Warn("object storage ping", slog.Any("error", err))
		}
		content = objects
	}

	svc.Store = pgstore.New(pool, content)
	svc.Requester = cache.NewRequester(svc.Store, svc.Redis, cfg.CacheTTL)

	settings, err := svc.Store.Settings(ctx)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("load ledger settings: %w", err)
	}
	engines, err := reports.NewEngines(svc.Store, settings.Name, cfg.ArchiveLocale)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("init report engines: %w", err)
	}

	svc.Metrics = jobmetrics.NewMetrics(nil)
	svc.Orchestrator, err = archive.NewOrchestrator(archive.Config{
		Requester: svc.Requester,
		Reports: []archive.ReportBuilder{
			engines.Journal,
			engines.GeneralLedger,
			engines.BalanceBreakdown,
			engines.BalanceSheet,
			engines.IncomeStatement,
		},
		Books:      pgstore.SnapshotBooks{DB: pool},
		Root:       cfg.ArchiveRoot,
		Version:    cfg.AppVersion,
		Locale:     cfg.ArchiveLocale,
		Timeout:    cfg.ArchiveTimeout,
		Retries:    cfg.ArchiveQueryRetries,
		RetryDelay: cfg.ArchiveRetryDelay,
		Logger:     logger,
		Metrics:    svc.Metrics,
	})
	if err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

// Ready pings the database.
func (s *Services) Ready(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// Close releases connections.
func (s *Services) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn("redis close", slog.Any("error", err))
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
}
