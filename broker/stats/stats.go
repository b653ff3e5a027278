// Package stats holds the broker's process-wide atomic counters. They are
// not part of the wire protocol; logging and tests read them for
// introspection.
package stats

import "sync/atomic"

// Stats is safe for concurrent use. The zero value is ready to use.
type Stats struct {
	MainEnqueued     atomic.Int64
	DeadEnqueued     atomic.Int64
	Delivered        atomic.Int64
	Retried          atomic.Int64
	SessionsAccepted atomic.Int64
	SessionsClosed   atomic.Int64
}

// Snapshot is a point-in-time copy of Stats suitable for logging.
type Snapshot struct {
	MainEnqueued     int64
	DeadEnqueued     int64
	Delivered        int64
	Retried          int64
	SessionsAccepted int64
	SessionsClosed   int64
}

// Snapshot reads all counters. It is not atomic as a whole, only per field.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		MainEnqueued:     s.MainEnqueued.Load(),
		DeadEnqueued:     s.DeadEnqueued.Load(),
		Delivered:        s.Delivered.Load(),
		Retried:          s.Retried.Load(),
		SessionsAccepted: s.SessionsAccepted.Load(),
		SessionsClosed:   s.SessionsClosed.Load(),
	}
}
