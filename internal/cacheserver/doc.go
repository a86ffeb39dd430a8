// Package cacheserver runs a development cache replica. It serves the cache
// REST API with gin and the cachequorum.v1.Replica service with gRPC, both
// over a storage.Store. It exists to exercise the coordinator locally and in
// tests; it does no replication of its own.
package cacheserver
