package spatial

import (
	"sync"

	"github.com/tidwall/rtree"

	"vatlive/internal/geo"
)

// AirportIndex is a point index over static airports, built once at
// startup and keyed by compound id (retained for deletion, even though in
// practice airports never vanish mid-run).
type AirportIndex struct {
	mu   sync.RWMutex
	tree rtree.RTreeG[string]
	byID map[string]pointEntry
}

func NewAirportIndex() *AirportIndex {
	return &AirportIndex{byID: make(map[string]pointEntry)}
}

func (a *AirportIndex) Insert(compoundID string, pos geo.Point) {
	a.mu.Lock()
	defer a.mu.Unlock()
	min, max := pos.Envelope()
	a.tree.Insert(min, max, compoundID)
	a.byID[compoundID] = pointEntry{min: min, max: max}
}

func (a *AirportIndex) QueryRect(r geo.Rect) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []string
	for _, part := range r.Split() {
		min, max := part.Envelope()
		a.tree.Search(min, max, func(_, _ [2]float64, id string) bool {
			out = append(out, id)
			return true
		})
	}
	return out
}

func (a *AirportIndex) All() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.byID))
	for id := range a.byID {
		out = append(out, id)
	}
	return out
}

// FIRIndex is a rect index over static FIR bounding boxes, built once.
type FIRIndex struct {
	mu   sync.RWMutex
	tree rtree.RTreeG[string]
	byID map[string][2][2]float64
}

func NewFIRIndex() *FIRIndex {
	return &FIRIndex{byID: make(map[string][2][2]float64)}
}

func (f *FIRIndex) Insert(icao string, box geo.Rect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	min, max := box.Envelope()
	f.tree.Insert(min, max, icao)
	f.byID[icao] = [2][2]float64{min, max}
}

// QueryRect returns every FIR icao whose bounding box intersects r.
func (f *FIRIndex) QueryRect(r geo.Rect) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, part := range r.Split() {
		min, max := part.Envelope()
		f.tree.Search(min, max, func(_, _ [2]float64, icao string) bool {
			if !seen[icao] {
				seen[icao] = true
				out = append(out, icao)
			}
			return true
		})
	}
	return out
}

func (f *FIRIndex) All() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.byID))
	for id := range f.byID {
		out = append(out, id)
	}
	return out
}
