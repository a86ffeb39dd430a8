// Package metrics holds the coordinator's operation counters.
package metrics

import (
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// Metrics holds atomic counters for observability.
type Metrics struct {
	GetsTotal           atomic.Int64
	PutsTotal           atomic.Int64
	DeletesTotal        atomic.Int64
	ReadQuorumFailures  atomic.Int64
	WriteQuorumFailures atomic.Int64
	RepairsTriggered    atomic.Int64
	RepairFailures      atomic.Int64
	RollbacksTotal      atomic.Int64
	TransportErrors     atomic.Int64
	RemoteErrors        atomic.Int64
	ReplicaTimeouts     atomic.Int64
}

// New returns zeroed counters.
func New() *Metrics {
	return &Metrics{}
}

// Snapshot returns all metrics as a string-keyed map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"gets_total":            m.GetsTotal.Load(),
		"puts_total":            m.PutsTotal.Load(),
		"deletes_total":         m.DeletesTotal.Load(),
		"read_quorum_failures":  m.ReadQuorumFailures.Load(),
		"write_quorum_failures": m.WriteQuorumFailures.Load(),
		"repairs_triggered":     m.RepairsTriggered.Load(),
		"repair_failures":       m.RepairFailures.Load(),
		"rollbacks_total":       m.RollbacksTotal.Load(),
		"transport_errors":      m.TransportErrors.Load(),
		"remote_errors":         m.RemoteErrors.Load(),
		"replica_timeouts":      m.ReplicaTimeouts.Load(),
	}
}

// StartLogger logs a snapshot every interval until stop is closed.
func (m *Metrics) StartLogger(interval time.Duration, stop <-chan struct{}) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-stop:
				return
			case <-t.C:
				fields := log.Fields{}
				for k, v := range m.Snapshot() {
					fields[k] = v
				}
				log.WithField("component", "metrics").WithFields(fields).Info("metrics")
			}
		}
	}()
}
