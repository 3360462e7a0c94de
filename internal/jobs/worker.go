package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"glucotrack/internal/engine"
)

const DefaultInterval = time.Minute

// Ticker is one evaluation pass.
type Ticker interface {
	Tick(ctx context.Context) (int, error)
}

// Worker drives the engine on a fixed interval.
type Worker struct {
	ID       string
	Engine   Ticker
	Interval time.Duration
	Logger   *zap.Logger
}

// Run ticks once immediately, then every Interval until ctx is done.
// Tick errors are logged and never stop the loop.
func (w *Worker) Run(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("worker", w.ID))
	logger.Info("poller started", zap.Duration("interval", interval))

	w.tick(ctx, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("poller stopped")
			return
		case <-ticker.C:
			w.tick(ctx, logger)
		}
	}
}

func (w *Worker) tick(ctx context.Context, logger *zap.Logger) {
	created, err := w.Engine.Tick(ctx)
	switch {
	case err == nil:
		if created > 0 {
			logger.Info("tick", zap.Int("created", created))
		}
	case errors.Is(err, engine.ErrTickInFlight):
		logger.Debug("tick skipped, previous pass still running")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("tick cancelled")
	default:
		logger.Error("tick failed", zap.Error(err))
	}
}
