package server

import (
	"sync/atomic"
	"time"
)

// serverStats aggregates channel lifecycle counters.
type serverStats struct {
	active   atomic.Int64
	accepted atomic.Int64
	closed   atomic.Int64
}

// Stats is a point-in-time snapshot of server counters.
type Stats struct {
	// ActiveChannels is the current live channel count.
	ActiveChannels int64

	// TotalAccepted counts every channel ever accepted.
	TotalAccepted int64

	// TotalClosed counts every channel that reached the closed transition.
	TotalClosed int64

	// CollectedAt is when the snapshot was taken.
	CollectedAt time.Time
}

// Stats returns a snapshot of the server's counters.
func (s *Server) Stats() *Stats {
	return &Stats{
		ActiveChannels: s.stats.active.Load(),
		TotalAccepted:  s.stats.accepted.Load(),
		TotalClosed:    s.stats.closed.Load(),
		CollectedAt:    time.Now(),
	}
}
