package quorum

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cachequorum/internal/replica"
)

const (
	// DefaultTimeout bounds one logical operation across all replicas.
	DefaultTimeout = 2 * time.Second
)

var (
	ErrInvalidConfig = errors.New("invalid quorum config")
	ErrReadQuorum    = errors.New("read quorum not met")
	ErrWriteQuorum   = errors.New("write quorum not met")
)

// Config holds the replica count and the read and write thresholds.
type Config struct {
	N     int
	Read  int
	Write int
}

// Validate checks 1 <= Read, Write <= N.
func (c Config) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("%w: replica count %d < 1", ErrInvalidConfig, c.N)
	}
	if c.Read < 1 || c.Read > c.N {
		return fmt.Errorf("%w: read quorum %d not in [1, %d]", ErrInvalidConfig, c.Read, c.N)
	}
	if c.Write < 1 || c.Write > c.N {
		return fmt.Errorf("%w: write quorum %d not in [1, %d]", ErrInvalidConfig, c.Write, c.N)
	}
	return nil
}

// QuorumError reports a read or write that missed its threshold.
type QuorumError struct {
	Op       string
	Acks     int
	Required int
	Replicas int
	Err      error
}

func (e *QuorumError) Error() string {
	return fmt.Sprintf("%s: %v (acks=%d required=%d replicas=%d)", e.Op, e.Err, e.Acks, e.Required, e.Replicas)
}

func (e *QuorumError) Unwrap() error { return e.Err }

// Kind classifies one replica outcome.
type Kind int

const (
	Success Kind = iota
	RemoteError
	TransportError
	TimedOut
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case RemoteError:
		return "remote_error"
	case TransportError:
		return "transport_error"
	default:
		return "timed_out"
	}
}

// Outcome is what one replica produced for one operation.
type Outcome struct {
	Replica replica.Endpoint
	Kind    Kind
	Value   string
	Message string
	Err     error
}

// CallFunc performs the operation against a single replica.
type CallFunc func(ctx context.Context, ep replica.Endpoint) Outcome

// Result is the joined view of one fan-out.
type Result struct {
	Replicas  int
	Attempts  int // outcomes reported before the barrier released
	Successes int
	TimedOut  bool
	Outcomes  []Outcome // arrival order, unreported replicas appended last
}

// operation is the per-call state shared by the replica goroutines of one
// fan-out. It is never reused.
type operation struct {
	mu        sync.Mutex
	attempts  int
	successes int
	outcomes  []Outcome
	reported  []bool
	sealed    bool
	done      chan struct{}
}

func newOperation(n int) *operation {
	return &operation{
		outcomes: make([]Outcome, 0, n),
		reported: make([]bool, n),
		done:     make(chan struct{}),
	}
}

// record applies o exactly once. Outcomes arriving after seal are dropped.
func (op *operation) record(slot int, o Outcome) {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.sealed || op.reported[slot] {
		return
	}
	op.reported[slot] = true
	op.attempts++
	if o.Kind == Success {
		op.successes++
	}
	op.outcomes = append(op.outcomes, o)
	if op.attempts == len(op.reported) {
		close(op.done)
	}
}

// seal stops accepting outcomes and fills in the replicas that never answered.
func (op *operation) seal(endpoints []replica.Endpoint, cause error) Result {
	op.mu.Lock()
	defer op.mu.Unlock()

	op.sealed = true
	res := Result{
		Replicas:  len(endpoints),
		Attempts:  op.attempts,
		Successes: op.successes,
		Outcomes:  append([]Outcome(nil), op.outcomes...),
	}
	for i, ep := range endpoints {
		if !op.reported[i] {
			res.TimedOut = true
			res.Outcomes = append(res.Outcomes, Outcome{Replica: ep, Kind: TimedOut, Err: cause})
		}
	}
	return res
}

// FanOut calls every endpoint concurrently and waits until all of them have
// reported or timeout elapses. Calls still outstanding at that point are
// cancelled and their results discarded.
func FanOut(ctx context.Context, endpoints []replica.Endpoint, timeout time.Duration, call CallFunc) Result {
	if len(endpoints) == 0 {
		return Result{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op := newOperation(len(endpoints))
	for i, ep := range endpoints {
		go func(slot int, ep replica.Endpoint) {
			op.record(slot, call(opCtx, ep))
		}(i, ep)
	}

	select {
	case <-op.done:
		return op.seal(endpoints, nil)
	case <-opCtx.Done():
		return op.seal(endpoints, opCtx.Err())
	}
}

// Tally is the majority computed over successful read outcomes.
type Tally struct {
	Value     string
	Count     int
	Responses int
	Distinct  int
}

// Majority counts values among successful outcomes in arrival order. On a
// tie the value seen first keeps priority, so the winner among equally
// frequent values depends on arrival order and is not stable across runs.
func Majority(outcomes []Outcome) Tally {
	var t Tally
	counts := make(map[string]int)
	for _, o := range outcomes {
		if o.Kind != Success {
			continue
		}
		t.Responses++
		counts[o.Value]++
		if c := counts[o.Value]; c > t.Count {
			t.Count = c
			t.Value = o.Value
		}
	}
	t.Distinct = len(counts)
	return t
}

// ReadVerdict is the decision taken after a read fan-out.
type ReadVerdict int

const (
	// Consistent: every replica returned the same value.
	Consistent ReadVerdict = iota
	// NeedsRepair: a value met the read quorum but some replicas disagree or failed.
	NeedsRepair
	// NoQuorum: no single value met the read quorum.
	NoQuorum
)

func (v ReadVerdict) String() string {
	switch v {
	case Consistent:
		return "consistent"
	case NeedsRepair:
		return "needs_repair"
	default:
		return "no_quorum"
	}
}

// DecideRead applies the read rules to a tally.
func DecideRead(t Tally, c Config) ReadVerdict {
	switch {
	case t.Count == c.N:
		return Consistent
	case t.Count < c.Read:
		return NoQuorum
	default:
		return NeedsRepair
	}
}

// WriteCommitted reports whether acks reach the write quorum.
func WriteCommitted(acks int, c Config) bool {
	return acks >= c.Write
}
