// Package replica describes the cache-server replicas a coordinator talks to
// and the transports used to reach them. A transport reports transport
// failures as errors and replica-reported failures as a non-OK Status.
package replica
