// Package coordinator implements the client-side quorum coordinator that
// sits in front of a fixed set of independent cache replicas. Reads return
// the majority value and trigger read-repair when replicas disagree; writes
// that miss the write quorum are rolled back with a best-effort delete.
//
// Rollback is not atomic. Between a failed write and its compensating
// delete some replicas may still hold the partially written value.
package coordinator
