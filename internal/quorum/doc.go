// Package quorum provides the fan-out and decision logic for quorum reads
// and writes. It issues one call per replica, joins the outcomes at a
// timeout-bounded barrier, and applies majority and threshold rules.
package quorum
