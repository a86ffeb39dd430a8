package repair

import (
	"context"
	"sync"
	"time"

	"cachequorum/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// WriteFunc writes a reconciled value back to the replica set.
type WriteFunc func(ctx context.Context, key uint64, value string) error

// ReadRepairer performs asynchronous read repair to converge stale replicas.
type ReadRepairer struct {
	write   WriteFunc
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *log.Entry
	wg      sync.WaitGroup
}

// NewReadRepairer creates a new read repairer. A nil m disables counting.
func NewReadRepairer(write WriteFunc, timeout time.Duration, m *metrics.Metrics) *ReadRepairer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}
	return &ReadRepairer{
		write:   write,
		timeout: timeout,
		metrics: m,
		logger:  log.WithField("component", "repair"),
	}
}

// Repair writes value for key in the background and returns immediately.
// The write runs on a context detached from any request.
func (r *ReadRepairer) Repair(key uint64, value string) {
	r.metrics.RepairsTriggered.Add(1)
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				r.metrics.RepairFailures.Add(1)
				r.logger.WithField("key", key).Errorf("read repair panic: %v", err)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		logger := r.logger.WithField("key", key)
		logger.WithField("value", value).Info("read repair triggered")

		if err := r.write(ctx, key, value); err != nil {
			r.metrics.RepairFailures.Add(1)
			logger.WithError(err).Warn("read repair failed")
			return
		}
		logger.Debug("read repair completed")
	}()
}

// Wait blocks until every scheduled repair has finished.
func (r *ReadRepairer) Wait() {
	r.wg.Wait()
}
