package syncengine

import (
	"sync"
	"time"
)

// Stats is a snapshot of engine activity since construction.
type Stats struct {
	Ticks          uint64
	OfflineTicks   uint64
	LocalAccepted  uint64
	RemoteAccepted uint64
	ManualPushes   uint64
	ManualPulls    uint64

	PushErrors       uint64
	FetchErrors      uint64
	LocalReadErrors  uint64
	LocalWriteErrors uint64

	// ConsecutiveFetchErrors resets on the next successful fetch.
	ConsecutiveFetchErrors uint64

	LastLocalChange  time.Time
	LastRemoteChange time.Time
}

type statsRecorder struct {
	mu sync.Mutex
	s  Stats
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.s
}

func (r *statsRecorder) update(fn func(*Stats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.s)
}

func (r *statsRecorder) tick()             { r.update(func(s *Stats) { s.Ticks++ }) }
func (r *statsRecorder) offline()          { r.update(func(s *Stats) { s.OfflineTicks++ }) }
func (r *statsRecorder) manualPush()       { r.update(func(s *Stats) { s.ManualPushes++ }) }
func (r *statsRecorder) manualPull()       { r.update(func(s *Stats) { s.ManualPulls++ }) }
func (r *statsRecorder) pushFailed()       { r.update(func(s *Stats) { s.PushErrors++ }) }
func (r *statsRecorder) localReadFailed()  { r.update(func(s *Stats) { s.LocalReadErrors++ }) }
func (r *statsRecorder) localWriteFailed() { r.update(func(s *Stats) { s.LocalWriteErrors++ }) }

func (r *statsRecorder) localAccepted(at time.Time) {
	r.update(func(s *Stats) {
		s.LocalAccepted++
		s.LastLocalChange = at
	})
}

func (r *statsRecorder) remoteAccepted(at time.Time) {
	r.update(func(s *Stats) {
		s.RemoteAccepted++
		s.LastRemoteChange = at
	})
}

// fetchFailed records a failed fetch and returns the consecutive count.
func (r *statsRecorder) fetchFailed() uint64 {
	var n uint64
	r.update(func(s *Stats) {
		s.FetchErrors++
		s.ConsecutiveFetchErrors++
		n = s.ConsecutiveFetchErrors
	})
	return n
}

// fetchSucceeded resets the consecutive failure count and returns what it was.
func (r *statsRecorder) fetchSucceeded() uint64 {
	var n uint64
	r.update(func(s *Stats) {
		n = s.ConsecutiveFetchErrors
		s.ConsecutiveFetchErrors = 0
	})
	return n
}
