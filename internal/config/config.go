// Package config holds the coordinator's construction-time settings.
package config

import (
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"cachequorum/internal/quorum"
	"cachequorum/internal/replica"
	log "github.com/sirupsen/logrus"
)

const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds the coordinator configuration.
type Config struct {
	BaseAddr        string
	StartPort       int
	Replicas        int
	ReadQuorum      int
	WriteQuorum     int
	Timeout         time.Duration
	Transport       string
	RollbackRetries int
	LogLevel        string
	// Peers overrides BaseAddr/StartPort/Replicas when set.
	Peers []replica.Endpoint
}

// Default returns the settings of a three-replica local cluster.
func Default() Config {
	return Config{
		BaseAddr:    "http://localhost",
		StartPort:   3000,
		Replicas:    3,
		ReadQuorum:  2,
		WriteQuorum: 2,
		Timeout:     quorum.DefaultTimeout,
		Transport:   TransportHTTP,
		LogLevel:    "info",
	}
}

// RegisterFlags binds c's fields to fs. Values already in c become the defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.BaseAddr, "base", c.BaseAddr, "replica base address")
	fs.IntVar(&c.StartPort, "start-port", c.StartPort, "port of the first replica; replica i listens on start-port+i")
	fs.IntVar(&c.Replicas, "replicas", c.Replicas, "number of replicas")
	fs.IntVar(&c.ReadQuorum, "r", c.ReadQuorum, "read quorum")
	fs.IntVar(&c.WriteQuorum, "w", c.WriteQuorum, "write quorum")
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "per-operation timeout")
	fs.StringVar(&c.Transport, "transport", c.Transport, "replica transport: http or grpc")
	fs.IntVar(&c.RollbackRetries, "rollback-retries", c.RollbackRetries, "extra rollback attempts for unreachable replicas")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.Func("peers", "explicit replica list host:port,host:port (overrides -base/-start-port/-replicas)", func(s string) error {
		peers, err := ParsePeers(s)
		if err != nil {
			return err
		}
		c.Peers = peers
		return nil
	})
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if len(c.Peers) == 0 {
		if c.BaseAddr == "" {
			return fmt.Errorf("base address cannot be empty")
		}
		if c.StartPort <= 0 || c.StartPort+c.Replicas-1 > 65535 {
			return fmt.Errorf("invalid port range %d..%d", c.StartPort, c.StartPort+c.Replicas-1)
		}
	}
	if c.Transport != TransportHTTP && c.Transport != TransportGRPC {
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.RollbackRetries < 0 {
		return fmt.Errorf("rollback retries cannot be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.Quorum().Validate()
}

// Endpoints returns the replica list.
func (c *Config) Endpoints() []replica.Endpoint {
	if len(c.Peers) > 0 {
		return append([]replica.Endpoint(nil), c.Peers...)
	}
	return replica.Endpoints(c.BaseAddr, c.StartPort, c.Replicas)
}

// Quorum returns the quorum thresholds for the configured replicas.
func (c *Config) Quorum() quorum.Config {
	n := c.Replicas
	if len(c.Peers) > 0 {
		n = len(c.Peers)
	}
	return quorum.Config{N: n, Read: c.ReadQuorum, Write: c.WriteQuorum}
}

// ParsePeers parses a comma-separated list of replicas in the format:
// "host1:port1,host2:port2". A host may carry a scheme, e.g. http://host:port.
func ParsePeers(peersStr string) ([]replica.Endpoint, error) {
	if peersStr == "" {
		return []replica.Endpoint{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]replica.Endpoint, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		scheme := ""
		rest := part
		if i := strings.Index(rest, "://"); i >= 0 {
			scheme, rest = rest[:i+3], rest[i+3:]
		}

		host, portStr, err := net.SplitHostPort(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid peer format: %s (expected host:port)", part)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port in peer %s", part)
		}
		if host == "" {
			return nil, fmt.Errorf("peer host cannot be empty: %s", part)
		}

		peers = append(peers, replica.Endpoint{
			Index: len(peers),
			Base:  scheme + host,
			Port:  port,
		})
	}

	return peers, nil
}
