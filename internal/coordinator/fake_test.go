package coordinator

import (
	"context"
	"errors"
	"sync"

	"cachequorum/internal/replica"
)

var errUnreachable = errors.New("connection refused")

// fakeReplica is one in-memory replica with injectable faults.
type fakeReplica struct {
	data         map[uint64]string
	downReads    bool
	failWrites   map[uint64]bool // remote error on write for key
	downWrites   bool
	downRemoves  int // transport failures left before removes succeed
	hang         bool
	removeStatus replica.Status
}

type call struct {
	replica int
	key     uint64
	value   string
}

// fakeTransport routes calls by Endpoint.Index and records them.
type fakeTransport struct {
	mu       sync.Mutex
	replicas []*fakeReplica
	reads    []call
	writes   []call
	removes  []call
}

func newFakeTransport(n int) *fakeTransport {
	ft := &fakeTransport{}
	for i := 0; i < n; i++ {
		ft.replicas = append(ft.replicas, &fakeReplica{
			data:       make(map[uint64]string),
			failWrites: make(map[uint64]bool),
		})
	}
	return ft
}

func (ft *fakeTransport) seed(key uint64, values ...string) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	for i, v := range values {
		ft.replicas[i].data[key] = v
	}
}

func (ft *fakeTransport) value(i int, key uint64) (string, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	v, ok := ft.replicas[i].data[key]
	return v, ok
}

func (ft *fakeTransport) counts() (reads, writes, removes int) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.reads), len(ft.writes), len(ft.removes)
}

func (ft *fakeTransport) recordedWrites() []call {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]call(nil), ft.writes...)
}

func (ft *fakeTransport) recordedRemoves() []call {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]call(nil), ft.removes...)
}

func (ft *fakeTransport) hanging(ctx context.Context, r *fakeReplica) bool {
	if r.hang {
		<-ctx.Done()
		return true
	}
	return false
}

func (ft *fakeTransport) Read(ctx context.Context, ep replica.Endpoint, key uint64) (replica.ReadResponse, error) {
	ft.mu.Lock()
	r := ft.replicas[ep.Index]
	ft.reads = append(ft.reads, call{replica: ep.Index, key: key})
	ft.mu.Unlock()

	if ft.hanging(ctx, r) {
		return replica.ReadResponse{}, ctx.Err()
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if r.downReads {
		return replica.ReadResponse{}, errUnreachable
	}
	v, ok := r.data[key]
	if !ok {
		return replica.ReadResponse{Status: replica.StatusNotFound}, nil
	}
	return replica.ReadResponse{Status: replica.StatusOK, Value: v}, nil
}

func (ft *fakeTransport) Write(ctx context.Context, ep replica.Endpoint, key uint64, value string) (replica.WriteResponse, error) {
	ft.mu.Lock()
	r := ft.replicas[ep.Index]
	ft.writes = append(ft.writes, call{replica: ep.Index, key: key, value: value})
	ft.mu.Unlock()

	if ft.hanging(ctx, r) {
		return replica.WriteResponse{}, ctx.Err()
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if r.downWrites {
		return replica.WriteResponse{}, errUnreachable
	}
	if r.failWrites[key] {
		return replica.WriteResponse{Status: replica.StatusError, Message: "rejected"}, nil
	}
	r.data[key] = value
	return replica.WriteResponse{Status: replica.StatusOK}, nil
}

func (ft *fakeTransport) Remove(ctx context.Context, ep replica.Endpoint, key uint64) (replica.WriteResponse, error) {
	ft.mu.Lock()
	r := ft.replicas[ep.Index]
	ft.removes = append(ft.removes, call{replica: ep.Index, key: key})
	ft.mu.Unlock()

	if ft.hanging(ctx, r) {
		return replica.WriteResponse{}, ctx.Err()
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()
	if r.downRemoves > 0 {
		r.downRemoves--
		return replica.WriteResponse{}, errUnreachable
	}
	if r.removeStatus != replica.StatusOK {
		return replica.WriteResponse{Status: r.removeStatus}, nil
	}
	if _, ok := r.data[key]; !ok {
		return replica.WriteResponse{Status: replica.StatusNotFound}, nil
	}
	delete(r.data, key)
	return replica.WriteResponse{Status: replica.StatusOK}, nil
}

func (ft *fakeTransport) Close() error { return nil }
