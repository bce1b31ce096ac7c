package jobs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Every enqueues a job of jobType on q at each interval until ctx is done.
// The first job is enqueued immediately when runNow is true. Ticks that land
// while the previous run is still in flight are skipped.
func Every(ctx context.Context, q *Queue, interval time.Duration, jobType string, runNow bool, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		return
	}
	enqueue := func(at time.Time) {
		job := Job{ID: jobType + "-" + at.UTC().Format("20060102T150405"), Type: jobType, Key: jobType}
		err := q.Enqueue(job)
		switch {
		case errors.Is(err, ErrAlreadyQueued):
			logger.Debug("previous run still in flight", zap.String("queue", q.Name()), zap.String("type", jobType))
		case err != nil:
			logger.Warn("scheduled enqueue failed", zap.String("queue", q.Name()), zap.String("type", jobType), zap.Error(err))
		}
	}
	if runNow {
		enqueue(time.Now())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case at := <-ticker.C:
			enqueue(at)
		}
	}
}
