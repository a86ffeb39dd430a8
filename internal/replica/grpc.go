package replica

import (
	"context"
	"fmt"
	"sync"

	"cachequorum/internal/rpcapi"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCTransport talks to replicas over the cachequorum.v1.Replica service.
// Connections are created lazily and cached per address.
type GRPCTransport struct {
	mu       sync.RWMutex
	conns    map[string]*grpc.ClientConn
	clients  map[string]*rpcapi.Client
	dialOpts []grpc.DialOption
}

// NewGRPCTransport creates a transport. With no options it dials with
// insecure credentials.
func NewGRPCTransport(opts ...grpc.DialOption) *GRPCTransport {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	return &GRPCTransport{
		conns:    make(map[string]*grpc.ClientConn),
		clients:  make(map[string]*rpcapi.Client),
		dialOpts: opts,
	}
}

func (t *GRPCTransport) client(ep Endpoint) (*rpcapi.Client, error) {
	addr := ep.HostPort()

	t.mu.RLock()
	c, ok := t.clients[addr]
	t.mu.RUnlock()
	if ok {
		return c, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if c, ok := t.clients[addr]; ok {
		return c, nil
	}

	conn, err := grpc.NewClient(addr, t.dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	c = rpcapi.NewClient(conn)
	t.conns[addr] = conn
	t.clients[addr] = c
	return c, nil
}

func toStatus(s string) Status {
	switch s {
	case rpcapi.StatusOK:
		return StatusOK
	case rpcapi.StatusNotFound:
		return StatusNotFound
	default:
		return StatusError
	}
}

func (t *GRPCTransport) Read(ctx context.Context, ep Endpoint, key uint64) (ReadResponse, error) {
	c, err := t.client(ep)
	if err != nil {
		return ReadResponse{}, err
	}
	resp, err := c.Read(ctx, key)
	if err != nil {
		return ReadResponse{}, err
	}
	return ReadResponse{Status: toStatus(resp.Status), Value: resp.Value, Message: resp.Message}, nil
}

func (t *GRPCTransport) Write(ctx context.Context, ep Endpoint, key uint64, value string) (WriteResponse, error) {
	c, err := t.client(ep)
	if err != nil {
		return WriteResponse{}, err
	}
	resp, err := c.Write(ctx, key, value)
	if err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{Status: toStatus(resp.Status), Message: resp.Message}, nil
}

func (t *GRPCTransport) Remove(ctx context.Context, ep Endpoint, key uint64) (WriteResponse, error) {
	c, err := t.client(ep)
	if err != nil {
		return WriteResponse{}, err
	}
	resp, err := c.Remove(ctx, key)
	if err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{Status: toStatus(resp.Status), Message: resp.Message}, nil
}

// Close closes every cached connection.
func (t *GRPCTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for addr, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", addr, err)
		}
	}
	t.conns = make(map[string]*grpc.ClientConn)
	t.clients = make(map[string]*rpcapi.Client)
	return firstErr
}
