// Package manager implements the reconciliation loop and the shared
// locked state it maintains: the pilot entity map, the three spatial
// indices, the static data store, the track store and the weather cache.
// Exactly one reconciliation task runs per process; many streaming
// sessions read the state it publishes. Grounded on the original Rust
// Manager (manager/mod.rs) and the teacher's state.Tracker locking idiom.
package manager

import (
	"log"
	"sync"
	"time"

	"vatlive/internal/fixed"
	"vatlive/internal/geo"
	"vatlive/internal/spatial"
	"vatlive/internal/track"
	"vatlive/internal/upstream"
	"vatlive/internal/weather"
)

// Config tunes the reconciliation loop's cadence and retention.
type Config struct {
	PollPeriod         time.Duration
	TrackRetention     time.Duration
	CleanupEveryNTicks int
}

func DefaultConfig() Config {
	return Config{
		PollPeriod:         15 * time.Second,
		TrackRetention:      14 * 24 * time.Hour,
		CleanupEveryNTicks: 5,
	}
}

// Manager owns all shared live state. Lock ordering when more than one
// aggregate must be held together is fixed: fixed, pilots-entity,
// pilots2d, callsign-map, metrics (spec §5) — spatial.PilotIndex already
// folds pilots2d and the callsign-map behind one internal lock, so in
// practice callers only ever need fixed → pilotsMu → metrics order.
type Manager struct {
	cfg Config

	Fixed *fixed.Store

	pilotsMu sync.RWMutex
	pilots   map[string]*upstream.Pilot
	previousPilotCallsigns map[string]bool

	pilotIndex   *spatial.PilotIndex
	airportIndex *spatial.AirportIndex
	firIndex     *spatial.FIRIndex

	// previousControllerCallsigns is private to the reconciliation task —
	// it is never read by streaming sessions, so it needs no lock.
	previousControllerCallsigns map[string]fixed.Facility

	// countryTally counts reverse-geocoded pilot positions per geoname_id,
	// feeding the per-country metric labels.
	countryTallyMu sync.Mutex
	countryTally   map[int64]int64

	fetcher *upstream.Fetcher
	Tracks  track.Store
	Weather *weather.Cache
	Metrics *Metrics

	lastUpdatedAt time.Time
	tickCount     int
}

func New(cfg Config, fixedStore *fixed.Store, fetcher *upstream.Fetcher, tracks track.Store, wx *weather.Cache) *Manager {
	return &Manager{
		cfg:                         cfg,
		Fixed:                       fixedStore,
		pilots:                      make(map[string]*upstream.Pilot),
		previousPilotCallsigns:      make(map[string]bool),
		pilotIndex:                  spatial.NewPilotIndex(),
		airportIndex:                spatial.NewAirportIndex(),
		firIndex:                    spatial.NewFIRIndex(),
		previousControllerCallsigns: make(map[string]fixed.Facility),
		countryTally:                make(map[int64]int64),
		fetcher:                     fetcher,
		Tracks:                      tracks,
		Weather:                     wx,
		Metrics:                     &Metrics{},
	}
}

// BuildStaticIndices populates the static airport/FIR point and rect
// indices once, after Fixed has been loaded.
func (m *Manager) BuildStaticIndices() {
	for _, a := range m.Fixed.AllAirports() {
		m.airportIndex.Insert(a.CompoundID(), a.Position)
	}
	for _, f := range m.Fixed.AllFIRs() {
		m.firIndex.Insert(f.ICAO, f.BoundingBox())
	}
}

// GetPilot returns one pilot entity by callsign.
func (m *Manager) GetPilot(callsign string) (*upstream.Pilot, bool) {
	m.pilotsMu.RLock()
	defer m.pilotsMu.RUnlock()
	p, ok := m.pilots[callsign]
	return p, ok
}

// GetPilots returns candidate pilots for a viewport, or every pilot when
// noBounds is set (zoom < 3.0).
func (m *Manager) GetPilots(r geo.Rect, noBounds bool) []*upstream.Pilot {
	var callsigns []string
	if noBounds {
		callsigns = m.pilotIndex.All()
	} else {
		callsigns = m.pilotIndex.QueryRect(r)
	}

	m.pilotsMu.RLock()
	defer m.pilotsMu.RUnlock()
	out := make([]*upstream.Pilot, 0, len(callsigns))
	for _, cs := range callsigns {
		if p, ok := m.pilots[cs]; ok {
			out = append(out, p)
		}
	}
	return out
}

// GetAirports returns candidate airports for a viewport (or all, in
// no-bounds mode) that currently have a non-empty ControllerSet.
func (m *Manager) GetAirports(r geo.Rect, noBounds bool) []*fixed.Airport {
	var ids []string
	if noBounds {
		ids = m.airportIndex.All()
	} else {
		ids = m.airportIndex.QueryRect(r)
	}
	out := make([]*fixed.Airport, 0, len(ids))
	for _, id := range ids {
		a, ok := m.Fixed.FindAirport(id)
		if !ok || a.Controllers.IsEmpty() {
			continue
		}
		out = append(out, a)
	}
	return out
}

// GetFIRs returns candidate FIRs for a viewport (or all, in no-bounds
// mode) that currently have at least one controller.
func (m *Manager) GetFIRs(r geo.Rect, noBounds bool) []*fixed.FIR {
	var icaos []string
	if noBounds {
		icaos = m.firIndex.All()
	} else {
		icaos = m.firIndex.QueryRect(r)
	}
	out := make([]*fixed.FIR, 0, len(icaos))
	seen := make(map[string]bool)
	for _, icao := range icaos {
		if seen[icao] {
			continue
		}
		seen[icao] = true
		for _, f := range m.Fixed.FindFIRs(icao) {
			if !f.IsEmpty() {
				out = append(out, f)
			}
		}
	}
	return out
}

// FindAirport looks up a single airport by ICAO or compound id.
func (m *Manager) FindAirport(code string) (*fixed.Airport, bool) {
	return m.Fixed.FindAirport(code)
}

// CountryTally returns a snapshot of reverse-geocoded pilot counts keyed
// by geoname_id, for the per-country metric labels.
func (m *Manager) CountryTally() map[int64]int64 {
	m.countryTallyMu.Lock()
	defer m.countryTallyMu.Unlock()
	out := make(map[int64]int64, len(m.countryTally))
	for k, v := range m.countryTally {
		out[k] = v
	}
	return out
}

func (m *Manager) logf(format string, args ...any) {
	log.Printf("manager: "+format, args...)
}
