package coordinator

import (
	"context"
	"fmt"
	"time"

	"cachequorum/internal/metrics"
	"cachequorum/internal/quorum"
	"cachequorum/internal/repair"
	"cachequorum/internal/replica"
	log "github.com/sirupsen/logrus"
)

// Options tunes a Coordinator. Zero values fall back to defaults.
type Options struct {
	// Timeout bounds each fan-out across all replicas.
	Timeout time.Duration

	// RollbackRetries re-issues a rollback delete to replicas that could not
	// be reached. Zero means the delete is sent exactly once.
	RollbackRetries int

	Metrics *metrics.Metrics
	Logger  *log.Entry
}

// Coordinator fans get, put and delete out to every replica and enforces
// the configured quorums. It holds no per-key state between calls.
type Coordinator struct {
	endpoints       []replica.Endpoint
	quorum          quorum.Config
	transport       replica.Transport
	timeout         time.Duration
	rollbackRetries int
	metrics         *metrics.Metrics
	logger          *log.Entry
	repairer        *repair.ReadRepairer
}

// DeleteResult reports how a best-effort delete went.
type DeleteResult struct {
	Acks     int
	Replicas int
	Failed   []replica.Endpoint
}

// New creates a coordinator over endpoints. q.N must equal len(endpoints).
func New(endpoints []replica.Endpoint, q quorum.Config, transport replica.Transport, opts Options) (*Coordinator, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if len(endpoints) != q.N {
		return nil, fmt.Errorf("%w: %d endpoints for N=%d", quorum.ErrInvalidConfig, len(endpoints), q.N)
	}
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = quorum.DefaultTimeout
	}
	if opts.RollbackRetries < 0 {
		opts.RollbackRetries = 0
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.NewEntry(log.StandardLogger())
	}

	c := &Coordinator{
		endpoints:       append([]replica.Endpoint(nil), endpoints...),
		quorum:          q,
		transport:       transport,
		timeout:         opts.Timeout,
		rollbackRetries: opts.RollbackRetries,
		metrics:         opts.Metrics,
		logger:          opts.Logger.WithField("component", "coordinator"),
	}
	// Repairs go through Put so a repair that misses the write quorum is
	// rolled back like any other write.
	c.repairer = repair.NewReadRepairer(c.Put, 2*opts.Timeout, opts.Metrics)
	return c, nil
}

// Endpoints returns a copy of the replica list.
func (c *Coordinator) Endpoints() []replica.Endpoint {
	return append([]replica.Endpoint(nil), c.endpoints...)
}

// Metrics returns the counters the coordinator updates.
func (c *Coordinator) Metrics() *metrics.Metrics {
	return c.metrics
}

// Get reads key from every replica and returns the majority value.
//
// If all N replicas agree the value is returned as is. If the best value is
// held by at least the read quorum but not by all replicas, it is returned
// and written back to every replica in the background. Otherwise Get returns
// a *quorum.QuorumError wrapping quorum.ErrReadQuorum and the caller sees no
// value.
func (c *Coordinator) Get(ctx context.Context, key uint64) (string, error) {
	c.metrics.GetsTotal.Add(1)
	logger := c.logger.WithFields(log.Fields{"op": "get", "key": key})

	res := quorum.FanOut(ctx, c.endpoints, c.timeout, func(ctx context.Context, ep replica.Endpoint) quorum.Outcome {
		resp, err := c.transport.Read(ctx, ep, key)
		if err != nil {
			return quorum.Outcome{Replica: ep, Kind: quorum.TransportError, Err: err}
		}
		if resp.Status != replica.StatusOK {
			return quorum.Outcome{Replica: ep, Kind: quorum.RemoteError, Message: remoteMessage(resp.Status, resp.Message)}
		}
		return quorum.Outcome{Replica: ep, Kind: quorum.Success, Value: resp.Value}
	})
	c.observe(logger, res)

	tally := quorum.Majority(res.Outcomes)
	switch quorum.DecideRead(tally, c.quorum) {
	case quorum.Consistent:
		return tally.Value, nil
	case quorum.NoQuorum:
		c.metrics.ReadQuorumFailures.Add(1)
		logger.WithFields(log.Fields{
			"responses": tally.Responses,
			"distinct":  tally.Distinct,
			"max_count": tally.Count,
		}).Warn("read quorum not met, giving up without repair")
		return "", &quorum.QuorumError{
			Op:       "get",
			Acks:     tally.Count,
			Required: c.quorum.Read,
			Replicas: c.quorum.N,
			Err:      quorum.ErrReadQuorum,
		}
	default:
		logger.WithFields(log.Fields{"value": tally.Value, "max_count": tally.Count}).
			Info("replicas disagree, scheduling read repair")
		c.repairer.Repair(key, tally.Value)
		return tally.Value, nil
	}
}

// Put writes key=value to every replica. When fewer than the write quorum
// acknowledge, a compensating delete is sent to every replica and a
// *quorum.QuorumError wrapping quorum.ErrWriteQuorum is returned.
func (c *Coordinator) Put(ctx context.Context, key uint64, value string) error {
	c.metrics.PutsTotal.Add(1)
	logger := c.logger.WithFields(log.Fields{"op": "put", "key": key})

	res := quorum.FanOut(ctx, c.endpoints, c.timeout, func(ctx context.Context, ep replica.Endpoint) quorum.Outcome {
		resp, err := c.transport.Write(ctx, ep, key, value)
		if err != nil {
			return quorum.Outcome{Replica: ep, Kind: quorum.TransportError, Err: err}
		}
		if resp.Status != replica.StatusOK {
			return quorum.Outcome{Replica: ep, Kind: quorum.RemoteError, Message: remoteMessage(resp.Status, resp.Message)}
		}
		return quorum.Outcome{Replica: ep, Kind: quorum.Success}
	})
	c.observe(logger, res)

	if quorum.WriteCommitted(res.Successes, c.quorum) {
		logger.WithField("acks", res.Successes).Debug("write committed")
		return nil
	}

	c.metrics.WriteQuorumFailures.Add(1)
	logger.WithFields(log.Fields{"acks": res.Successes, "required": c.quorum.Write}).
		Warn("write quorum not met, rolling back")

	// The rollback must run even if the caller's deadline is what failed the write.
	rb := c.rollback(context.WithoutCancel(ctx), key)
	logger.WithFields(log.Fields{"removed": rb.Acks, "unreachable": len(rb.Failed)}).Info("rollback issued")

	return &quorum.QuorumError{
		Op:       "put",
		Acks:     res.Successes,
		Required: c.quorum.Write,
		Replicas: c.quorum.N,
		Err:      quorum.ErrWriteQuorum,
	}
}

// Delete removes key from every replica. It is best effort: no quorum is
// required and failed replicas are not retried.
func (c *Coordinator) Delete(ctx context.Context, key uint64) DeleteResult {
	c.metrics.DeletesTotal.Add(1)
	logger := c.logger.WithFields(log.Fields{"op": "delete", "key": key})
	return c.remove(ctx, logger, key, c.endpoints)
}

// Close waits for in-flight read repairs. The transport is owned by the caller.
func (c *Coordinator) Close() {
	c.repairer.Wait()
}

func (c *Coordinator) rollback(ctx context.Context, key uint64) DeleteResult {
	c.metrics.RollbacksTotal.Add(1)
	logger := c.logger.WithFields(log.Fields{"op": "rollback", "key": key})

	result := c.remove(ctx, logger, key, c.endpoints)
	for attempt := 1; attempt <= c.rollbackRetries && len(result.Failed) > 0; attempt++ {
		logger.WithFields(log.Fields{"attempt": attempt, "replicas": len(result.Failed)}).Info("retrying rollback")
		retry := c.remove(ctx, logger, key, result.Failed)
		result.Acks += retry.Acks
		result.Failed = retry.Failed
	}
	return result
}

// remove deletes key on endpoints. Replicas that answered with an error
// status are not listed as failed: they were reached and said no.
func (c *Coordinator) remove(ctx context.Context, logger *log.Entry, key uint64, endpoints []replica.Endpoint) DeleteResult {
	res := quorum.FanOut(ctx, endpoints, c.timeout, func(ctx context.Context, ep replica.Endpoint) quorum.Outcome {
		resp, err := c.transport.Remove(ctx, ep, key)
		if err != nil {
			return quorum.Outcome{Replica: ep, Kind: quorum.TransportError, Err: err}
		}
		if resp.Status != replica.StatusOK {
			return quorum.Outcome{Replica: ep, Kind: quorum.RemoteError, Message: remoteMessage(resp.Status, resp.Message)}
		}
		return quorum.Outcome{Replica: ep, Kind: quorum.Success}
	})
	c.observe(logger, res)

	result := DeleteResult{Acks: res.Successes, Replicas: len(endpoints)}
	for _, o := range res.Outcomes {
		if o.Kind == quorum.TransportError || o.Kind == quorum.TimedOut {
			result.Failed = append(result.Failed, o.Replica)
		}
	}
	return result
}

// observe logs and counts every non-successful outcome once.
func (c *Coordinator) observe(logger *log.Entry, res quorum.Result) {
	for _, o := range res.Outcomes {
		l := logger.WithField("replica", o.Replica.Addr())
		switch o.Kind {
		case quorum.TransportError:
			c.metrics.TransportErrors.Add(1)
			l.WithError(o.Err).Warn("replica call failed")
		case quorum.TimedOut:
			c.metrics.ReplicaTimeouts.Add(1)
			l.WithError(o.Err).Warn("replica did not answer before timeout")
		case quorum.RemoteError:
			c.metrics.RemoteErrors.Add(1)
			l.WithField("reason", o.Message).Debug("replica reported failure")
		}
	}
}

func remoteMessage(st replica.Status, msg string) string {
	if msg == "" {
		return st.String()
	}
	return st.String() + ": " + msg
}
