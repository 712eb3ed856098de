package manager

import (
	"context"
	"strings"
	"time"

	"vatlive/internal/fixed"
	"vatlive/internal/track"
	"vatlive/internal/upstream"
)

// Run drives the reconciliation loop until ctx is cancelled. Exactly one
// call to Run should be in flight per Manager.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick implements the eight-step reconciliation pass.
func (m *Manager) tick(ctx context.Context) {
	loadStart := time.Now()
	snap, err := m.fetcher.Fetch(ctx)
	if err != nil {
		m.logf("fetch failed: %v", err)
		return
	}
	loadTime := time.Since(loadStart).Seconds()

	if !snap.UpdatedAt.After(m.lastUpdatedAt) {
		m.runHousekeeping(ctx)
		return
	}
	m.lastUpdatedAt = snap.UpdatedAt

	pilotStart := time.Now()
	m.pilotsPass(snap.Pilots)
	pilotTime := time.Since(pilotStart).Seconds()

	ctlStart := time.Now()
	m.controllersPass(snap.Controllers)
	ctlTime := time.Since(ctlStart).Seconds()

	m.Metrics.update(func(mm *Metrics) {
		mm.VatsimDataTimestamp = snap.UpdatedAt.Unix()
		mm.VatsimDataLoadTimeSec = loadTime
		mm.PilotsProcessingTimeSec = pilotTime
		mm.ControllersProcessingTimeSec = ctlTime
		mm.PilotsOnline = len(snap.Pilots)
		mm.ControllersOnline = len(snap.Controllers)
	})

	m.runHousekeeping(ctx)
}

// pilotsPass implements spec step 3-5: remove-then-reinsert into the
// three views with track append, then purge vanished callsigns; the
// reverse-geocode tally runs after pilotsMu is released, so the fixed
// store's lock is never taken while pilotsMu is held.
func (m *Manager) pilotsPass(pilots []upstream.Pilot) {
	fresh := make(map[string]bool, len(pilots))

	m.pilotsMu.Lock()
	for i := range pilots {
		p := pilots[i]
		fresh[p.Callsign] = true

		// remove_pilot first — idempotent, makes upsert safe even when the
		// callsign is brand new.
		m.pilotIndex.Remove(p.Callsign)
		delete(m.pilots, p.Callsign)

		if m.Tracks != nil {
			if err := m.Tracks.StorePosition(context.Background(), track.Position{
				Code:        p.TrackCode(),
				Lat:         p.Position.Lat,
				Lng:         p.Position.Lng,
				Altitude:    p.Altitude,
				Heading:     int(p.Heading),
				Groundspeed: p.Groundspeed,
				Timestamp:   p.LastUpdated,
			}); err != nil {
				m.logf("track store position failed for %s: %v", p.Callsign, err)
			}
		}

		entity := p
		m.pilots[p.Callsign] = &entity
		m.pilotIndex.Upsert(p.Callsign, p.Position)
	}

	for callsign := range m.previousPilotCallsigns {
		if !fresh[callsign] {
			m.pilotIndex.Remove(callsign)
			delete(m.pilots, callsign)
		}
	}
	m.pilotsMu.Unlock()

	for i := range pilots {
		if country, ok := m.Fixed.ReverseGeocode(pilots[i].Position); ok {
			m.tallyCountry(country)
		}
	}

	m.previousPilotCallsigns = fresh
}

func (m *Manager) tallyCountry(c *fixed.Country) {
	m.countryTallyMu.Lock()
	m.countryTally[c.GeonameID]++
	m.countryTallyMu.Unlock()
}

// controllersPass implements spec step 6-7: Radar attaches to FIRs,
// everything else attaches to airports (ATIS re-derives active runways);
// vanished controllers are reset from their last-known facility.
func (m *Manager) controllersPass(controllers []upstream.Controller) {
	fresh := make(map[string]fixed.Facility, len(controllers))

	for i := range controllers {
		c := controllers[i]
		if c.Facility == fixed.FacilityReject {
			continue
		}
		fresh[c.Callsign] = c.Facility

		code := stationCode(c.Callsign)
		fc := &fixed.Controller{
			Callsign:    c.Callsign,
			CID:         c.CID,
			Name:        c.Name,
			Frequency:   c.Frequency,
			Facility:    c.Facility,
			Range:       c.Range,
			TextATIS:    c.TextATIS,
			LastUpdated: c.LastUpdated,
		}

		if c.Facility == fixed.FacilityRadar {
			m.Fixed.SetFIRController(code, fc)
			continue
		}
		m.Fixed.SetAirportController(code, fc)
	}

	for callsign, facility := range m.previousControllerCallsigns {
		if _, ok := fresh[callsign]; ok {
			continue
		}
		code := stationCode(callsign)
		if facility == fixed.FacilityRadar {
			m.Fixed.ResetFIRController(code, callsign)
		} else {
			m.Fixed.ResetAirportController(code, facility)
		}
	}

	m.previousControllerCallsigns = fresh
}

// stationCode derives the ICAO the controller attaches to from the
// conventional "ICAO_POS" callsign shape (e.g. "KSEA_TWR", "EGTT_CTR").
func stationCode(callsign string) string {
	if i := strings.IndexByte(callsign, '_'); i > 0 {
		return callsign[:i]
	}
	return callsign
}

// runHousekeeping always refreshes track counters for metrics and, every
// CleanupEveryNTicks ticks, runs track-store cleanup.
func (m *Manager) runHousekeeping(ctx context.Context) {
	m.tickCount++

	if m.Tracks == nil {
		return
	}

	counters, err := m.Tracks.Counters(ctx)
	if err != nil {
		m.logf("track counters failed: %v", err)
	} else {
		m.Metrics.update(func(mm *Metrics) {
			mm.TrackCount = counters.Tracks
			mm.TrackPointCount = counters.TrackPoints
		})
	}

	every := m.cfg.CleanupEveryNTicks
	if every <= 0 {
		every = 1
	}
	if m.tickCount%every != 0 {
		return
	}

	cleanupStart := time.Now()
	if _, err := m.Tracks.Cleanup(ctx, m.cfg.TrackRetention); err != nil {
		m.logf("track cleanup failed: %v", err)
		return
	}
	m.Metrics.update(func(mm *Metrics) {
		mm.DBCleanupTimeSec = time.Since(cleanupStart).Seconds()
	})
}
