// Command rppg-watch subscribes to the estimate subject and prints each
// published heart-rate estimate. It is the consumer-side counterpart of
// the pipeline's NATS publisher.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
)

func main() {
	url := flag.String("url", nats.DefaultURL, "NATS server URL")
	subject := flag.String("subject", "rppg.estimates", "estimate subject")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := nats.Connect(*url, nats.Name("rppg-watch"))
	if err != nil {
		log.Error(ctx, "nats connect failed", logger.Error(err))
		return
	}
	defer conn.Close()

	sub, err := conn.Subscribe(*subject, func(msg *nats.Msg) {
		var est model.Estimate
		if err := json.Unmarshal(msg.Data, &est); err != nil {
			log.Warn(ctx, "bad estimate payload", logger.Error(err))
			return
		}
		log.Info(ctx, "estimate",
			logger.Float64("mean_bpm", est.MeanBpm),
			logger.Float64("min_bpm", est.MinBpm),
			logger.Float64("max_bpm", est.MaxBpm),
			logger.String("track_id", est.TrackID),
			logger.Time("at", est.Time),
		)
	})
	if err != nil {
		log.Error(ctx, "subscribe failed", logger.Error(err))
		return
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	log.Info(ctx, "watching estimates",
		logger.String("url", *url),
		logger.String("subject", *subject),
	)
	<-ctx.Done()
}
