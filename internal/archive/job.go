package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/ledger-archive/internal/jobs"
	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	"github.com/odyssey-erp/ledger-archive/jobs"
)

const jobName = "archive_export"

// Exporter runs one archive export.
type Exporter interface {
	Export(ctx context.Context, period ledger.Period) (Result, error)
}

// JobConfig wires dependencies required by the worker job.
type JobConfig struct {
	Exporter Exporter
	Metrics  *jobmetrics.Metrics
	Logger   *slog.Logger
}

// Job processes archive export requests coming from the queue.
type Job struct {
	exporter Exporter
	metrics  *jobmetrics.Metrics
	logger   *slog.Logger
	validate *validator.Validate
}

// NewJob constructs a Job handler.
func NewJob(cfg JobConfig) *Job {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{exporter: cfg.Exporter, metrics: cfg.Metrics, logger: logger, validate: validator.New()}
}

// Handle fulfils the asynq.HandlerFunc contract. Malformed payloads and
// filesystem failures are not retried.
func (j *Job) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.exporter == nil {
		return fmt.Errorf("archive job not configured")
	}
	var payload jobs.ArchiveExportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	period, err := j.period(payload)
	if err != nil {
		j.logger.Warn("archive export payload rejected", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics.Track(jobName)
	res, err := j.exporter.Export(ctx, period)
	if err != nil {
		if errors.Is(err, ErrFilesystem) {
			err = fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return tracker.End(err)
	}
	j.logger.Info("archive ready",
		slog.String("period", period.Tag),
		slog.String("dir", res.Dir),
		slog.Int("warnings", len(res.Warnings)))
	return tracker.End(nil)
}

// PeriodFromPayload validates payload and converts it into a period.
func PeriodFromPayload(v *validator.Validate, payload jobs.ArchiveExportPayload) (ledger.Period, error) {
	if err := v.Struct(payload); err != nil {
		return ledger.Period{}, err
	}
	start, err := time.Parse("2006-01-02", payload.PeriodStart)
	if err != nil {
		return ledger.Period{}, err
	}
	end, err := time.Parse("2006-01-02", payload.PeriodEnd)
	if err != nil {
		return ledger.Period{}, err
	}
	period := ledger.Period{Start: start, End: end, Tag: payload.PeriodTag}
	return period, period.Validate()
}

func (j *Job) period(payload jobs.ArchiveExportPayload) (ledger.Period, error) {
	return PeriodFromPayload(j.validate, payload)
}
