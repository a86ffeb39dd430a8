package cacheserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cachequorum/internal/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

// Server is one development replica listening on a single address.
type Server struct {
	listenAddr string
	protocol   string
	store      storage.Store
	logger     *log.Entry

	httpServer *http.Server
	grpcServer *grpc.Server
}

// NewServer creates a replica that serves protocol ("http" or "grpc") on listenAddr.
func NewServer(listenAddr, protocol string, store storage.Store) (*Server, error) {
	if protocol != "http" && protocol != "grpc" {
		return nil, fmt.Errorf("unknown protocol %q", protocol)
	}
	if store == nil {
		store = storage.NewInMemoryStore()
	}
	s := &Server{
		listenAddr: listenAddr,
		protocol:   protocol,
		store:      store,
		logger: log.WithFields(log.Fields{
			"component": "cacheserver",
			"addr":      listenAddr,
		}),
	}
	if protocol == "grpc" {
		s.grpcServer = NewGRPCServer(store, s.logger)
	} else {
		s.httpServer = &http.Server{Handler: NewRouter(store, s.logger)}
	}
	return s, nil
}

// Store returns the backing store.
func (s *Server) Store() storage.Store {
	return s.store
}

// Start listens and serves until Stop is called.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.WithField("protocol", s.protocol).Info("starting replica")

	if s.grpcServer != nil {
		if err := s.grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	}

	if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop gracefully stops the replica.
func (s *Server) Stop() {
	s.logger.Info("stopping replica")
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("http shutdown")
		}
	}
}
