package main

import (
	"vatlive/internal/manager"
	"vatlive/internal/metrics"
)

// metricsSource adapts *manager.Manager to metrics.Source. It exists
// because internal/metrics deliberately declares its own Snapshot type
// rather than importing internal/manager, so the two field-identical
// structs need one conversion point — here, not in either package.
type metricsSource struct {
	mgr *manager.Manager
}

func (s metricsSource) Snapshot() metrics.Snapshot {
	snap := s.mgr.Metrics.Snapshot()
	return metrics.Snapshot{
		PilotsOnline:                 snap.PilotsOnline,
		ControllersOnline:            snap.ControllersOnline,
		TrackCount:                   snap.TrackCount,
		TrackPointCount:              snap.TrackPointCount,
		VatsimDataTimestamp:          snap.VatsimDataTimestamp,
		VatsimDataLoadTimeSec:        snap.VatsimDataLoadTimeSec,
		PilotsProcessingTimeSec:      snap.PilotsProcessingTimeSec,
		ControllersProcessingTimeSec: snap.ControllersProcessingTimeSec,
		DBCleanupTimeSec:             snap.DBCleanupTimeSec,
	}
}

func (s metricsSource) CountryTally() map[int64]int64 {
	return s.mgr.CountryTally()
}
