// Package rpcapi declares the cachequorum.v1.Replica gRPC service. Messages
// travel as google.protobuf.Struct so the service needs no generated code.
package rpcapi
