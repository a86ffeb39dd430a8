package cacheserver

import (
	"context"

	"cachequorum/internal/rpcapi"
	"cachequorum/internal/storage"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// ReplicaServer implements the replica gRPC service over a store.
type ReplicaServer struct {
	store  storage.Store
	logger *log.Entry
}

// NewReplicaServer creates a new replica server.
func NewReplicaServer(store storage.Store, logger *log.Entry) *ReplicaServer {
	return &ReplicaServer{store: store, logger: logger}
}

// NewGRPCServer returns a grpc.Server with the replica service registered.
func NewGRPCServer(store storage.Store, logger *log.Entry, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)
	rpcapi.RegisterReplicaServer(s, NewReplicaServer(store, logger))
	return s
}

func (s *ReplicaServer) Read(ctx context.Context, req rpcapi.Request) (rpcapi.Response, error) {
	s.logger.WithField("key", req.Key).Debug("Read")

	v, ok := s.store.Get(req.Key)
	if !ok {
		return rpcapi.Response{Status: rpcapi.StatusNotFound}, nil
	}
	return rpcapi.Response{Status: rpcapi.StatusOK, Value: v}, nil
}

func (s *ReplicaServer) Write(ctx context.Context, req rpcapi.Request) (rpcapi.Response, error) {
	s.logger.WithField("key", req.Key).Debug("Write")

	s.store.Put(req.Key, req.Value)
	return rpcapi.Response{Status: rpcapi.StatusOK}, nil
}

func (s *ReplicaServer) Remove(ctx context.Context, req rpcapi.Request) (rpcapi.Response, error) {
	s.logger.WithField("key", req.Key).Debug("Remove")

	if !s.store.Delete(req.Key) {
		return rpcapi.Response{Status: rpcapi.StatusNotFound}, nil
	}
	return rpcapi.Response{Status: rpcapi.StatusOK}, nil
}
