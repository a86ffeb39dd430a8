// Package repair schedules read-repair writes. A repair is fire-and-forget
// from the reader's point of view: failures are logged and counted, never
// returned to the caller that triggered them.
package repair
