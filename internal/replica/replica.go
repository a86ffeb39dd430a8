package replica

import (
	"context"
	"fmt"
	"strings"
)

// Endpoint identifies one replica: a shared base address plus its own port.
type Endpoint struct {
	Index int
	Base  string
	Port  int
}

// Addr returns base:port, keeping any scheme present in Base.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("%s:%d", e.Base, e.Port)
}

// HostPort returns the address with any URL scheme stripped.
func (e Endpoint) HostPort() string {
	base := e.Base
	if i := strings.Index(base, "://"); i >= 0 {
		base = base[i+3:]
	}
	return fmt.Sprintf("%s:%d", strings.TrimSuffix(base, "/"), e.Port)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("replica-%d(%s)", e.Index, e.Addr())
}

// Endpoints builds n endpoints at base:startPort+i.
func Endpoints(base string, startPort, n int) []Endpoint {
	eps := make([]Endpoint, n)
	for i := 0; i < n; i++ {
		eps[i] = Endpoint{Index: i, Base: base, Port: startPort + i}
	}
	return eps
}

// Status is the application-level result a replica reports.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotFound:
		return "NOT_FOUND"
	default:
		return "ERROR"
	}
}

// ReadResponse is a replica's answer to a read.
type ReadResponse struct {
	Status  Status
	Value   string
	Message string
}

// WriteResponse is a replica's answer to a write or remove.
type WriteResponse struct {
	Status  Status
	Message string
}

// Transport issues single requests to single replicas. Implementations must
// be safe for concurrent use and must honor ctx cancellation.
type Transport interface {
	Read(ctx context.Context, ep Endpoint, key uint64) (ReadResponse, error)
	Write(ctx context.Context, ep Endpoint, key uint64, value string) (WriteResponse, error)
	Remove(ctx context.Context, ep Endpoint, key uint64) (WriteResponse, error)
	Close() error
}
