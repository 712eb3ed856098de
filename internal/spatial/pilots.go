// Package spatial adapts tidwall/rtree's generic R-tree to the engine's
// three live indices: a point index of pilots, a point index of static
// airports, and a rect index of static FIRs. Because the underlying tree
// has no delete-by-key operation, PilotIndex keeps a parallel
// callsign→point map purely so it can hand the tree back the exact
// (min,max,data) triple a removal needs. The tree and that map are kept
// consistent behind one lock, so callers never see one without the other;
// the third pilot view, the entity map, lives in internal/manager.
package spatial

import (
	"sync"

	"github.com/tidwall/rtree"

	"vatlive/internal/geo"
)

type pointEntry struct {
	min, max [2]float64
	callsign string
}

// PilotIndex is a point index of live pilots keyed by callsign. Insert is
// remove-then-add so upsert is always safe; Remove is idempotent.
type PilotIndex struct {
	mu      sync.RWMutex
	tree    rtree.RTreeG[string]
	byCS    map[string]pointEntry
}

func NewPilotIndex() *PilotIndex {
	return &PilotIndex{byCS: make(map[string]pointEntry)}
}

// Remove strips callsign from the tree and the side map. Safe to call on
// an absent callsign.
func (p *PilotIndex) Remove(callsign string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(callsign)
}

func (p *PilotIndex) removeLocked(callsign string) {
	e, ok := p.byCS[callsign]
	if !ok {
		return
	}
	p.tree.Delete(e.min, e.max, callsign)
	delete(p.byCS, callsign)
}

// Upsert removes any previous entry for callsign, then inserts the fresh
// position. This is the mechanism that makes repeated snapshot processing
// idempotent and safe.
func (p *PilotIndex) Upsert(callsign string, pos geo.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(callsign)
	min, max := pos.Envelope()
	p.tree.Insert(min, max, callsign)
	p.byCS[callsign] = pointEntry{min: min, max: max, callsign: callsign}
}

// Has reports whether callsign is currently present in both views —
// the invariant spec §8 property 1 requires to hold at quiescence.
func (p *PilotIndex) Has(callsign string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.byCS[callsign]
	return ok
}

// Len returns the number of indexed pilots.
func (p *PilotIndex) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byCS)
}

// QueryRect returns every callsign whose point falls within r, splitting
// r at the antimeridian first when it is wrapped.
func (p *PilotIndex) QueryRect(r geo.Rect) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []string
	for _, part := range r.Split() {
		min, max := part.Envelope()
		p.tree.Search(min, max, func(_, _ [2]float64, callsign string) bool {
			out = append(out, callsign)
			return true
		})
	}
	return out
}

// All returns every indexed callsign, used in no-bounds mode (zoom < 3.0).
func (p *PilotIndex) All() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byCS))
	for cs := range p.byCS {
		out = append(out, cs)
	}
	return out
}
