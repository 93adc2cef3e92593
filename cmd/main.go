package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pulseworks/rppg/internal/adapters/detect"
	"github.com/pulseworks/rppg/internal/adapters/http/api"
	"github.com/pulseworks/rppg/internal/adapters/http/swagger"
	"github.com/pulseworks/rppg/internal/adapters/ingest"
	"github.com/pulseworks/rppg/internal/adapters/repository"
	"github.com/pulseworks/rppg/internal/adapters/sink"
	"github.com/pulseworks/rppg/internal/adapters/source"
	pipeline "github.com/pulseworks/rppg/internal/app"
	"github.com/pulseworks/rppg/internal/config"
	"github.com/pulseworks/rppg/internal/domain/filter"
	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
	"github.com/pulseworks/rppg/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	channel, err := model.ParseChannel(cfg.Channel)
	if err != nil {
		log.Error(ctx, "invalid channel", logger.Error(err))
		return
	}
	mode, err := filter.ParseMode(cfg.FilterMode)
	if err != nil {
		log.Error(ctx, "invalid filter mode", logger.Error(err))
		return
	}

	// Frame source. Camera capture is a host-application concern; the
	// synthetic source stands in for it here.
	src := source.New(cfg.FrameWidth, cfg.FrameHeight,
		source.WithBpm(cfg.SyntheticBpm),
		source.WithNoise(cfg.SyntheticNoise),
		source.WithDrift(cfg.SyntheticDrift),
	)

	faceDet, eyeDet, err := buildDetectors(cfg, src)
	if err != nil {
		log.Error(ctx, "detector setup failed", logger.Error(err))
		return
	}

	// Observers: structured log, in-memory history, optional NATS.
	history := repository.NewHistory(repository.WithCapacity(cfg.HistorySize))
	observers := []pipeline.Observer{sink.NewLogObserver(), history}
	if cfg.NATSURL != "" {
		publisher, err := sink.NewNATSPublisher(cfg.NATSURL, sink.WithSubject(cfg.NATSSubject))
		if err != nil {
			log.Error(ctx, "nats connect failed", logger.Error(err))
			return
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn(ctx, "nats close", logger.Error(err))
			}
		}()
		observers = append(observers, publisher)
	}

	opts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithFrameSize(cfg.FrameWidth, cfg.FrameHeight),
		pipeline.WithEyeDetector(eyeDet),
		pipeline.WithChannel(channel),
		pipeline.WithSampleRate(cfg.SamplingFrequency),
		pipeline.WithHorizon(time.Duration(cfg.HorizonMS) * time.Millisecond),
		pipeline.WithMaxGap(time.Duration(cfg.MaxGapMS) * time.Millisecond),
		pipeline.WithRescanInterval(time.Duration(cfg.RescanIntervalMS) * time.Millisecond),
		pipeline.WithMaxMisses(cfg.MaxMisses),
		pipeline.WithFilterMode(mode),
		pipeline.WithBpmRange(cfg.MinBpm, cfg.MaxBpm),
		pipeline.WithAggregatorWindow(cfg.AggregatorWindow),
		pipeline.WithAggregatorMinCount(cfg.AggregatorMinCount),
		pipeline.WithEstimationInterval(time.Duration(cfg.EstimationIntervalMS) * time.Millisecond),
		pipeline.WithWindowDuration(time.Duration(cfg.WindowMS) * time.Millisecond),
		pipeline.WithMinWindow(time.Duration(cfg.MinWindowMS) * time.Millisecond),
	}
	if cfg.DetrendWindow > 0 {
		opts = append(opts, pipeline.WithDetrendWindow(cfg.DetrendWindow))
	}
	for _, o := range observers {
		opts = append(opts, pipeline.WithObserver(o))
	}

	p, err := pipeline.New(faceDet, opts...)
	if err != nil {
		log.Error(ctx, "pipeline setup failed", logger.Error(err))
		return
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn(ctx, "pipeline close", logger.Error(err))
		}
	}()

	// Ingestion: bounded drop-oldest queue driven by a single runner.
	queue := ingest.NewFrameQueue(ingest.WithCapacity(cfg.QueueSize))
	defer queue.Close()
	runner := ingest.NewRunner(queue, p)
	go runner.Run(ctx)

	go feedFrames(ctx, queue, src, cfg.FrameRate)
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(history, p).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "runner shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "stopped")
}

// buildDetectors selects cascade detectors when classifier paths are
// configured, falling back to the synthetic source's scripted detectors.
func buildDetectors(cfg *config.Config, src *source.Synthetic) (faceDet, eyeDet detect.Detector, err error) {
	if cfg.FaceCascadePath == "" {
		return src.FaceDetector(), src.EyeDetector(), nil
	}

	faceDet, err = detect.NewCascade(cfg.FaceCascadePath)
	if err != nil {
		return nil, nil, err
	}
	if cfg.EyeCascadePath != "" {
		eyeDet, err = detect.NewCascade(cfg.EyeCascadePath)
		if err != nil {
			_ = faceDet.Close()
			return nil, nil, err
		}
	}
	return faceDet, eyeDet, nil
}

// feedFrames renders synthetic frames at the configured rate and pushes
// them into the ingestion queue.
func feedFrames(ctx context.Context, queue ingest.Queue, src *source.Synthetic, fps int) {
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f := src.Frame(now.Sub(start), now)
			queue.Enqueue(ctx, f)
			metrics.UpdateIngestQueueSize(queue.Len(ctx))
		}
	}
}

// startSystemMetricsUpdater periodically refreshes system-level metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
