package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/ledger-archive/internal/app"
	"github.com/odyssey-erp/ledger-archive/internal/archive"
	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	"github.com/odyssey-erp/ledger-archive/jobs"
)

type options struct {
	period  string
	start   string
	end     string
	tag     string
	enqueue bool
}

func parseOptions(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("archiver", flag.ContinueOnError)
	fs.StringVar(&opts.period, "period", "", "accounting period code to archive (looked up in the ledger)")
	fs.StringVar(&opts.start, "start", "", "period start date (2006-01-02), used with -end and -tag")
	fs.StringVar(&opts.end, "end", "", "period end date (2006-01-02)")
	fs.StringVar(&opts.tag, "tag", "", "period tag naming the archive directory")
	fs.BoolVar(&opts.enqueue, "enqueue", false, "queue the export for the worker instead of running it")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	switch {
	case opts.period != "" && (opts.start != "" || opts.end != "" || opts.tag != ""):
		return options{}, errors.New("use either -period or -start/-end/-tag")
	case opts.period == "" && (opts.start == "" || opts.end == "" || opts.tag == ""):
		return options{}, errors.New("-period or all of -start, -end and -tag required")
	}
	return opts, nil
}

func (o options) payload() jobs.ArchiveExportPayload {
	return jobs.ArchiveExportPayload{PeriodStart: o.start, PeriodEnd: o.end, PeriodTag: o.tag}
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger, opts); err != nil {
		logger.Error("archiver", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger, opts options) error {
	svc, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	var period ledger.Period
	if opts.period != "" {
		if period, err = svc.Store.FindPeriod(ctx, opts.period); err != nil {
			return err
		}
	} else if period, err = archive.PeriodFromPayload(validator.New(), opts.payload()); err != nil {
		return err
	}

	if opts.enqueue {
		client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		if err != nil {
			return err
		}
		defer client.Close()
		info, err := client.EnqueueArchiveExport(ctx, jobs.ArchiveExportPayload{
			PeriodStart: period.Start.Format("2006-01-02"),
			PeriodEnd:   period.End.Format("2006-01-02"),
			PeriodTag:   period.Tag,
		})
		if err != nil {
			return err
		}
		logger.Info("archive export queued", slog.String("task_id", info.ID), slog.String("period", period.Tag))
		return nil
	}

	res, err := svc.Orchestrator.Export(ctx, period)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		logger.Warn("archive warning", slog.String("detail", w.String()))
	}
	fmt.Println(res.Dir)
	return nil
}
