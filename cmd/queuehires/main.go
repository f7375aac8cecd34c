package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"queue-hires/internal/archive"
	"queue-hires/internal/config"
	"queue-hires/internal/export"
	"queue-hires/internal/httpx"
	"queue-hires/internal/logger"
	"queue-hires/internal/metrics"
	"queue-hires/internal/providers"
	"queue-hires/internal/providers/employees"
	"queue-hires/internal/providers/uipath"
	"queue-hires/internal/ratelimiter"
	"queue-hires/internal/sftpclient"
	"queue-hires/internal/sync"
)

type options struct {
	dryRun bool
	print  bool
}

func main() {
	var opts options
	flag.BoolVar(&opts.dryRun, "dry-run", false, "fetch and classify employees but do not add queue items")
	flag.BoolVar(&opts.print, "print", true, "print the response envelope as JSON to stdout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, opts, os.Stdout))
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, opts options, stdout io.Writer) int {
	lg, err := logger.New(logger.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer func() { _ = lg.Sync() }()

	cfg := config.Load()
	validate := cfg.Validate
	if opts.dryRun {
		validate = cfg.ValidateDryRun
	}
	if err := validate(); err != nil {
		lg.Error("invalid configuration", zap.Error(err))
		return 2
	}

	runID := uuid.NewString()
	lg = lg.With(zap.String("run_id", runID))
	start := time.Now()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// 1. Clients
	src := employees.New(cfg.SourceURL, cfg.HTTPTimeout)
	src.Retry = httpx.WithAttempts(cfg.SourceMaxAttempts)
	src.Logger = lg.Named("employees")

	var queue providers.QueueSubmitter
	if opts.dryRun {
		lg.Info("dry run: queue items will only be logged")
		queue = uipath.NewDryRun(lg.Named("dry-run"))
	} else {
		q := uipath.New(cfg.OrchestratorURL, cfg.AccessToken, cfg.FolderID, cfg.HTTPTimeout)
		q.Retry = httpx.WithAttempts(cfg.QueueMaxAttempts)
		q.Logger = lg.Named("uipath")
		queue = q
	}

	// 2. Run
	h := sync.NewHandler(sync.Deps{
		Source:    src,
		Queue:     queue,
		QueueName: cfg.QueueName,
		Limiter:   ratelimiter.New(cfg.QueueRateLimit),
		Metrics:   m,
		Logger:    lg,
	})
	res, resp := h.Run(ctx)

	if opts.print {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			lg.Error("print response failed", zap.Error(err))
		}
	}

	// 3. Report and metrics; failures here never change the outcome.
	// A cancelled run still gets its report out.
	sideCtx := context.WithoutCancel(ctx)
	publishReport(sideCtx, cfg, lg, runID, res, resp)

	if cfg.PushgatewayURL != "" {
		if err := m.Push(sideCtx, cfg.PushgatewayURL, cfg.MetricsJob, runID); err != nil {
			lg.Warn("push metrics failed", zap.Error(err))
		}
	}

	lg.Info("execution finished",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func reportSinks(ctx context.Context, cfg config.Config, lg *zap.Logger) []export.Sink {
	var sinks []export.Sink
	if cfg.ReportDir != "" {
		sinks = append(sinks, export.DirSink{Dir: cfg.ReportDir})
	}
	if cfg.SFTPEnabled() {
		sinks = append(sinks, sftpclient.Sink{Config: sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}})
	}
	if cfg.S3Bucket != "" {
		client, err := archive.NewS3Client(ctx, archive.Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			lg.Warn("s3 archive disabled", zap.Error(err))
		} else {
			sinks = append(sinks, archive.NewS3Sink(client, cfg.S3Bucket, cfg.S3Prefix))
		}
	}
	return sinks
}

func publishReport(ctx context.Context, cfg config.Config, lg *zap.Logger, runID string, res sync.Result, resp sync.Response) {
	sinks := reportSinks(ctx, cfg, lg)
	if len(sinks) == 0 {
		return
	}

	report := export.NewReport(runID, res, resp)
	data, err := export.Encode(report, cfg.ReportCompress)
	if err != nil {
		lg.Warn("encode report failed", zap.Error(err))
		return
	}

	name := report.FileName(cfg.ReportCompress)
	if err := export.Publish(ctx, sinks, name, data); err != nil {
		lg.Warn("publish report failed", zap.String("file", name), zap.Error(err))
		return
	}
	lg.Info("report published", zap.String("file", name), zap.Int("sinks", len(sinks)))
}
