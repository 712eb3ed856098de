package manager

import "sync"

// Metrics is the reconciliation loop's internal snapshot, read by
// internal/metrics to populate the Prometheus collector. Field names
// mirror the original Rust Metrics struct exactly.
type Metrics struct {
	mu sync.RWMutex

	PilotsOnline              int
	ControllersOnline         int
	TrackCount                int64
	TrackPointCount           int64
	VatsimDataTimestamp       int64
	VatsimDataLoadTimeSec     float64
	PilotsProcessingTimeSec   float64
	ControllersProcessingTimeSec float64
	DBCleanupTimeSec          float64
}

// Snapshot returns a copy safe to read without holding the lock further.
func (m *Metrics) Snapshot() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		PilotsOnline:                 m.PilotsOnline,
		ControllersOnline:            m.ControllersOnline,
		TrackCount:                   m.TrackCount,
		TrackPointCount:              m.TrackPointCount,
		VatsimDataTimestamp:          m.VatsimDataTimestamp,
		VatsimDataLoadTimeSec:        m.VatsimDataLoadTimeSec,
		PilotsProcessingTimeSec:      m.PilotsProcessingTimeSec,
		ControllersProcessingTimeSec: m.ControllersProcessingTimeSec,
		DBCleanupTimeSec:             m.DBCleanupTimeSec,
	}
}

func (m *Metrics) update(fn func(*Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}
