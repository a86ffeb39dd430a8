package it

import (
	"fmt"
	"net"
	"sync"
	"time"

	"cachequorum/internal/cacheserver"
	"cachequorum/internal/coordinator"
	"cachequorum/internal/quorum"
	"cachequorum/internal/replica"
	"cachequorum/internal/storage"
)

// Cluster represents a test cluster of in-process replicas
type Cluster struct {
	protocol string
	nodes    []*Node
	mu       sync.Mutex
}

// Node represents a single replica in the test cluster
type Node struct {
	Endpoint replica.Endpoint
	Store    *storage.InMemoryStore
	server   *cacheserver.Server
	done     chan error
	stopped  bool
}

// NewCluster starts n replicas speaking protocol on loopback ports.
func NewCluster(protocol string, n int) (*Cluster, error) {
	c := &Cluster{protocol: protocol}
	for i := 0; i < n; i++ {
		if err := c.startNode(i); err != nil {
			c.Stop()
			return nil, err
		}
	}
	return c, nil
}

func (c *Cluster) startNode(index int) error {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for replica %d: %w", index, err)
	}

	store := storage.NewInMemoryStore()
	srv, err := cacheserver.NewServer(lis.Addr().String(), c.protocol, store)
	if err != nil {
		lis.Close()
		return err
	}

	base := "127.0.0.1"
	if c.protocol == "http" {
		base = "http://127.0.0.1"
	}
	node := &Node{
		Endpoint: replica.Endpoint{Index: index, Base: base, Port: lis.Addr().(*net.TCPAddr).Port},
		Store:    store,
		server:   srv,
		done:     make(chan error, 1),
	}
	go func() { node.done <- srv.Serve(lis) }()

	c.mu.Lock()
	c.nodes = append(c.nodes, node)
	c.mu.Unlock()
	return nil
}

// Endpoints returns the replica endpoints in index order.
func (c *Cluster) Endpoints() []replica.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	eps := make([]replica.Endpoint, len(c.nodes))
	for i, n := range c.nodes {
		eps[i] = n.Endpoint
	}
	return eps
}

// Node returns the replica at index.
func (c *Cluster) Node(index int) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes[index]
}

// Transport returns a fresh transport for the cluster's protocol.
func (c *Cluster) Transport() replica.Transport {
	if c.protocol == "grpc" {
		return replica.NewGRPCTransport()
	}
	return replica.NewHTTPTransport(nil)
}

// Coordinator builds a coordinator over the whole cluster.
func (c *Cluster) Coordinator(tr replica.Transport, r, w int, timeout time.Duration) (*coordinator.Coordinator, error) {
	eps := c.Endpoints()
	return coordinator.New(eps, quorum.Config{N: len(eps), Read: r, Write: w}, tr, coordinator.Options{Timeout: timeout})
}

// KillNode stops the replica at index.
func (c *Cluster) KillNode(index int) {
	c.mu.Lock()
	n := c.nodes[index]
	c.mu.Unlock()
	n.Stop()
}

// Stop stops all replicas in the cluster
func (c *Cluster) Stop() {
	c.mu.Lock()
	nodes := c.nodes
	c.nodes = nil
	c.mu.Unlock()

	for _, n := range nodes {
		n.Stop()
	}
}

// Stop stops a single replica
func (n *Node) Stop() {
	if n.stopped {
		return
	}
	n.stopped = true
	n.server.Stop()
	<-n.done
}
