package repair

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cachequorum/internal/metrics"
)

type recordingWriter struct {
	mu     sync.Mutex
	calls  int
	key    uint64
	value  string
	err    error
	panics bool
}

func (w *recordingWriter) write(ctx context.Context, key uint64, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls++
	w.key = key
	w.value = value
	if w.panics {
		panic("boom")
	}
	return w.err
}

func TestReadRepairer_Repair_WritesValue(t *testing.T) {
	w := &recordingWriter{}
	m := metrics.New()
	repairer := NewReadRepairer(w.write, time.Second, m)

	repairer.Repair(42, "a")
	repairer.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.calls != 1 {
		t.Fatalf("Expected 1 repair write, got %d", w.calls)
	}
	if w.key != 42 || w.value != "a" {
		t.Errorf("Expected write 42=a, got %d=%s", w.key, w.value)
	}
	if got := m.RepairsTriggered.Load(); got != 1 {
		t.Errorf("Expected repairs_triggered 1, got %d", got)
	}
	if got := m.RepairFailures.Load(); got != 0 {
		t.Errorf("Expected repair_failures 0, got %d", got)
	}
}

func TestReadRepairer_Repair_FailureIsCounted(t *testing.T) {
	w := &recordingWriter{err: errors.New("quorum not met")}
	m := metrics.New()
	repairer := NewReadRepairer(w.write, time.Second, m)

	repairer.Repair(1, "x")
	repairer.Wait()

	if got := m.RepairFailures.Load(); got != 1 {
		t.Errorf("Expected repair_failures 1, got %d", got)
	}
}

func TestReadRepairer_Repair_RecoversPanic(t *testing.T) {
	w := &recordingWriter{panics: true}
	m := metrics.New()
	repairer := NewReadRepairer(w.write, time.Second, m)

	repairer.Repair(1, "x")
	repairer.Wait()

	if got := m.RepairFailures.Load(); got != 1 {
		t.Errorf("Expected repair_failures 1 after panic, got %d", got)
	}
}

func TestReadRepairer_Repair_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	slow := func(ctx context.Context, key uint64, value string) error {
		<-release
		return nil
	}
	repairer := NewReadRepairer(slow, time.Second, nil)

	start := time.Now()
	repairer.Repair(7, "v")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Repair blocked the caller for %v", elapsed)
	}
	close(release)
	repairer.Wait()
}
