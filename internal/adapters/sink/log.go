// Package sink provides observers that deliver emitted heart-rate
// estimates to the outside world.
package sink

import (
	"context"

	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
)

// LogObserver logs every emitted estimate.
type LogObserver struct {
	logger logger.Logger
}

// NewLogObserver creates a LogObserver on the named global logger.
func NewLogObserver() *LogObserver {
	return &LogObserver{logger: logger.Named("observer")}
}

// OnHeartRate implements the pipeline observer contract.
func (o *LogObserver) OnHeartRate(ctx context.Context, est model.Estimate) {
	o.logger.Info(ctx, "heart rate",
		logger.Float64("mean_bpm", est.MeanBpm),
		logger.Float64("min_bpm", est.MinBpm),
		logger.Float64("max_bpm", est.MaxBpm),
		logger.String("track_id", est.TrackID),
		logger.Time("at", est.Time),
	)
}
