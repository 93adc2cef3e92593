package sink

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pulseworks/rppg/internal/domain/model"
	"github.com/pulseworks/rppg/pkg/logger"
)

// Default NATS publisher configuration constants.
const (
	defaultSubject = "rppg.estimates"
	clientName     = "rppg-publisher"
)

// NATSOption applies a configuration option to the NATSPublisher.
type NATSOption func(*NATSPublisher)

// WithSubject sets the subject estimates are published on.
func WithSubject(subject string) NATSOption {
	return func(p *NATSPublisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// NATSPublisher publishes each emitted estimate as JSON on a NATS
// subject, so collectors can consume the stream without linking the
// pipeline.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  logger.Logger
}

// NewNATSPublisher connects to the NATS server at url. A connection
// failure is a construction-time error.
func NewNATSPublisher(url string, opts ...NATSOption) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name(clientName))
	if err != nil {
		return nil, err
	}

	p := &NATSPublisher{
		conn:    conn,
		subject: defaultSubject,
		logger:  logger.Named("nats"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// OnHeartRate implements the pipeline observer contract. Publish failures
// are logged, not propagated; estimate delivery is best-effort.
func (p *NATSPublisher) OnHeartRate(ctx context.Context, est model.Estimate) {
	data, err := json.Marshal(est)
	if err != nil {
		p.logger.Error(ctx, "marshal estimate", logger.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		p.logger.Warn(ctx, "publish estimate", logger.Error(err))
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
