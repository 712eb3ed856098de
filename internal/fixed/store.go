package fixed

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"

	"vatlive/internal/geo"
)

// Store is the mutable container for all static reference data: airports,
// FIRs, countries, and country shapes. It is built once at startup by
// external parsers (not modeled here — out of scope per spec §1) and then
// serves lookups and controller attach/detach under a single lock, per
// spec §5's "one RWMutex per logical aggregate" policy applied to the
// fixed-data aggregate.
type Store struct {
	mu sync.RWMutex

	airportsByICAO    map[string]*Airport
	airportsByCompound map[string]*Airport
	firsByICAO        map[string][]*FIR
	countries         map[int64]*Country
	shapes            map[int64]*Shape
	shapeTree         rtree.RTreeG[*Shape]

	Aircraft *AircraftTable
}

// NewStore builds an empty store; callers load data via Load* methods
// before serving traffic.
func NewStore(aircraft *AircraftTable) *Store {
	return &Store{
		airportsByICAO:     make(map[string]*Airport),
		airportsByCompound: make(map[string]*Airport),
		firsByICAO:         make(map[string][]*FIR),
		countries:          make(map[int64]*Country),
		shapes:             make(map[int64]*Shape),
		Aircraft:           aircraft,
	}
}

// LoadAirports replaces the airport tables wholesale. Called once during
// startup loading.
func (s *Store) LoadAirports(airports []*Airport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.airportsByICAO = make(map[string]*Airport, len(airports))
	s.airportsByCompound = make(map[string]*Airport, len(airports))
	for _, a := range airports {
		s.airportsByICAO[a.ICAO] = a
		s.airportsByCompound[a.CompoundID()] = a
	}
}

// LoadFIRs replaces the FIR table; an ICAO may have more than one FIR
// record (e.g. UIR/FIR pairs), so lookups return a slice.
func (s *Store) LoadFIRs(firs []*FIR) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firsByICAO = make(map[string][]*FIR, len(firs))
	for _, f := range firs {
		s.firsByICAO[f.ICAO] = append(s.firsByICAO[f.ICAO], f)
	}
}

// LoadCountries replaces the country table.
func (s *Store) LoadCountries(countries []*Country) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries = make(map[int64]*Country, len(countries))
	for _, c := range countries {
		s.countries[c.GeonameID] = c
	}
}

// LoadShapes replaces the country-shape R-tree used for reverse geocoding.
func (s *Store) LoadShapes(shapes []*Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shapes = make(map[int64]*Shape, len(shapes))
	s.shapeTree = rtree.RTreeG[*Shape]{}
	for _, sh := range shapes {
		s.shapes[sh.RefID] = sh
		min, max := shapeBounds(sh)
		s.shapeTree.Insert(min, max, sh)
	}
}

func shapeBounds(sh *Shape) (min, max [2]float64) {
	first := true
	for _, ring := range sh.Rings {
		for _, p := range ring {
			if first {
				min = [2]float64{p.Lng, p.Lat}
				max = min
				first = false
				continue
			}
			if p.Lng < min[0] {
				min[0] = p.Lng
			}
			if p.Lat < min[1] {
				min[1] = p.Lat
			}
			if p.Lng > max[0] {
				max[0] = p.Lng
			}
			if p.Lat > max[1] {
				max[1] = p.Lat
			}
		}
	}
	return
}

// FindAirport looks up an airport by ICAO or compound id, case-sensitive.
func (s *Store) FindAirport(code string) (*Airport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.airportsByICAO[code]; ok {
		return a, true
	}
	a, ok := s.airportsByCompound[code]
	return a, ok
}

// FindFIRs returns every FIR record for an ICAO code.
func (s *Store) FindFIRs(icao string) []*FIR {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firsByICAO[icao]
}

// AllAirports returns a snapshot slice of every loaded airport.
func (s *Store) AllAirports() []*Airport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Airport, 0, len(s.airportsByICAO))
	for _, a := range s.airportsByICAO {
		out = append(out, a)
	}
	return out
}

// AllFIRs returns a snapshot slice of every loaded FIR.
func (s *Store) AllFIRs() []*FIR {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*FIR, 0, len(s.firsByICAO))
	for _, list := range s.firsByICAO {
		out = append(out, list...)
	}
	return out
}

// SetAirportController idempotently attaches c to the slot for its
// facility in the ControllerSet of the airport found by the given ICAO or
// compound id and, for ATIS, re-derives active runways. It reports false
// when no such airport exists.
func (s *Store) SetAirportController(icaoOrCompound string, c *Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lookupAirportLocked(icaoOrCompound)
	if a == nil {
		return false
	}
	assignControllerSlot(&a.Controllers, c)
	if c.Facility == FacilityATIS {
		a.SetActiveRunways()
	}
	return true
}

// ResetAirportController clears the slot matching the stored controller's
// own facility — the caller supplies the vanished controller's last known
// facility, since by the time of removal the snapshot no longer carries it.
func (s *Store) ResetAirportController(icaoOrCompound string, facility Facility) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.lookupAirportLocked(icaoOrCompound)
	if a == nil {
		return
	}
	clearControllerSlot(&a.Controllers, facility)
	if facility == FacilityATIS {
		a.SetActiveRunways()
	}
}

func (s *Store) lookupAirportLocked(code string) *Airport {
	if a, ok := s.airportsByICAO[code]; ok {
		return a
	}
	return s.airportsByCompound[code]
}

// SetFIRController idempotently attaches a Radar controller to the named
// FIR's controller map, keyed by callsign.
func (s *Store) SetFIRController(icao string, c *Controller) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	firs := s.firsByICAO[icao]
	if len(firs) == 0 {
		return false
	}
	for _, f := range firs {
		if f.Controllers == nil {
			f.Controllers = make(map[string]*Controller)
		}
		f.Controllers[c.Callsign] = c
	}
	return true
}

// ResetFIRController removes a vanished Radar controller from every FIR
// record sharing the ICAO.
func (s *Store) ResetFIRController(icao, callsign string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.firsByICAO[icao] {
		delete(f.Controllers, callsign)
	}
}

func assignControllerSlot(cs *ControllerSet, c *Controller) {
	switch c.Facility {
	case FacilityATIS:
		cs.ATIS = c
	case FacilityDelivery:
		cs.Delivery = c
	case FacilityGround:
		cs.Ground = c
	case FacilityTower:
		cs.Tower = c
	case FacilityApproach:
		cs.Approach = c
	}
}

func clearControllerSlot(cs *ControllerSet, f Facility) {
	switch f {
	case FacilityATIS:
		cs.ATIS = nil
	case FacilityDelivery:
		cs.Delivery = nil
	case FacilityGround:
		cs.Ground = nil
	case FacilityTower:
		cs.Tower = nil
	case FacilityApproach:
		cs.Approach = nil
	}
}

// ReverseGeocode finds the country whose shape contains p, using an
// envelope query against the shape R-tree followed by point-in-polygon
// containment checks, stopping at the first hit.
func (s *Store) ReverseGeocode(p geo.Point) (*Country, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Country
	pt := orb.Point{p.Lng, p.Lat}
	min := [2]float64{p.Lng, p.Lat}
	max := min
	s.shapeTree.Search(min, max, func(_, _ [2]float64, sh *Shape) bool {
		for _, ring := range sh.Rings {
			poly := make(orb.Ring, 0, len(ring))
			for _, v := range ring {
				poly = append(poly, orb.Point{v.Lng, v.Lat})
			}
			if planar.RingContains(poly, pt) {
				found = s.countries[sh.RefID]
				return false
			}
		}
		return true
	})
	return found, found != nil
}
