package metrics

import (
	"testing"
	"time"
)

func TestSnapshot(t *testing.T) {
	m := New()
	m.GetsTotal.Add(3)
	m.RepairsTriggered.Add(1)
	m.RollbacksTotal.Add(2)

	snap := m.Snapshot()
	if snap["gets_total"] != 3 {
		t.Errorf("gets_total = %d, want 3", snap["gets_total"])
	}
	if snap["repairs_triggered"] != 1 {
		t.Errorf("repairs_triggered = %d, want 1", snap["repairs_triggered"])
	}
	if snap["rollbacks_total"] != 2 {
		t.Errorf("rollbacks_total = %d, want 2", snap["rollbacks_total"])
	}
	if snap["puts_total"] != 0 {
		t.Errorf("puts_total = %d, want 0", snap["puts_total"])
	}
}

func TestStartLogger_Stops(t *testing.T) {
	m := New()
	stop := make(chan struct{})
	m.StartLogger(5*time.Millisecond, stop)
	time.Sleep(20 * time.Millisecond)
	close(stop)
}
