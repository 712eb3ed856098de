// Package fixed holds the static reference data the live engine enriches
// snapshots with: airports, FIRs, countries and their shapes, and the
// aircraft-type table. Construction happens once at startup from external
// parsers; at run time the store only serves lookups and controller
// attach/detach from the reconciliation loop.
package fixed

import (
	"fmt"
	"time"

	"vatlive/internal/geo"
)

// Country is a VATSpy-style geonames country record.
type Country struct {
	ISO        string
	ISO3       string
	Name       string
	Capital    string
	Continent  string
	Neighbours []string
	GeonameID  int64
}

// Shape is one country polygon, keyed by the geonames id it belongs to.
type Shape struct {
	RefID int64
	Rings [][]geo.Point
}

// Runway is one physical runway of an airport; ActiveLnd/ActiveTo are
// reset and re-derived from the airport's ATIS whenever its ATIS
// controller is set or cleared.
type Runway struct {
	Ident     string
	Heading   float64
	Length    int
	ActiveLnd bool
	ActiveTo  bool
}

// Controller is a live ATC position, identified by Callsign. Equality
// deliberately excludes LastUpdated: an incoming snapshot identical except
// for its timestamp must not trigger a runway re-evaluation.
type Controller struct {
	Callsign    string
	CID         int
	Name        string
	Frequency   int // kHz
	Facility    Facility
	Range       int
	TextATIS    string
	LastUpdated time.Time
}

// Equal compares two controllers ignoring LastUpdated, per §9.
func (c Controller) Equal(o Controller) bool {
	return c.Callsign == o.Callsign &&
		c.CID == o.CID &&
		c.Name == o.Name &&
		c.Frequency == o.Frequency &&
		c.Facility == o.Facility &&
		c.Range == o.Range &&
		c.TextATIS == o.TextATIS
}

// ControllerSet collects the (at most one each) ATIS/Delivery/Ground/
// Tower/Approach controllers working one airport.
type ControllerSet struct {
	ATIS      *Controller
	Delivery  *Controller
	Ground    *Controller
	Tower     *Controller
	Approach  *Controller
}

// IsEmpty reports whether no controller slot is occupied.
func (cs ControllerSet) IsEmpty() bool {
	return cs.ATIS == nil && cs.Delivery == nil && cs.Ground == nil && cs.Tower == nil && cs.Approach == nil
}

// Airport is a static airport record plus its live ControllerSet.
type Airport struct {
	ICAO       string
	IATA       string
	Name       string
	Position   geo.Point
	FIRID      string
	IsPseudo   bool
	Runways    map[string]*Runway
	Controllers ControllerSet
}

// CompoundID is the spatial-index key for an airport, retained so the
// entry can later be removed by id.
func (a *Airport) CompoundID() string {
	return fmt.Sprintf("%s:%s", a.ICAO, a.IATA)
}

// ResetActiveRunways clears every runway's ActiveLnd/ActiveTo flags. Called
// before re-deriving them from a (possibly absent) ATIS broadcast.
func (a *Airport) ResetActiveRunways() {
	for _, rw := range a.Runways {
		rw.ActiveLnd = false
		rw.ActiveTo = false
	}
}

// SetActiveRunways resets, then, if an ATIS controller is attached,
// normalizes its text and marks matching runways active.
func (a *Airport) SetActiveRunways() {
	a.ResetActiveRunways()
	if a.Controllers.ATIS == nil {
		return
	}
	normalized := NormalizeATISText(a.Controllers.ATIS.TextATIS)
	for _, ident := range DetectArrivalRunways(normalized) {
		if rw, ok := a.Runways[ident]; ok {
			rw.ActiveLnd = true
		}
	}
	for _, ident := range DetectDepartureRunways(normalized) {
		if rw, ok := a.Runways[ident]; ok {
			rw.ActiveTo = true
		}
	}
}

// Boundaries describes a FIR's region and the polygon rings bounding it.
// Equality is by Id alone — boundaries don't change within a single run.
type Boundaries struct {
	ID        string
	Region    string
	Division  string
	IsOceanic bool
	Min       geo.Point
	Max       geo.Point
	Center    geo.Point
	Points    [][]geo.Point
}

func (b Boundaries) Equal(o Boundaries) bool {
	return b.ID == o.ID
}

// FIR is a Flight Information Region, carrying its live controller set
// keyed by callsign.
type FIR struct {
	ICAO        string
	Name        string
	Prefix      string
	Boundaries  Boundaries
	Controllers map[string]*Controller
}

func (f *FIR) IsEmpty() bool {
	return len(f.Controllers) == 0
}

// BoundingBox returns the FIR's min/max envelope for the rect R-tree.
func (f *FIR) BoundingBox() geo.Rect {
	return geo.Rect{SW: f.Boundaries.Min, NE: f.Boundaries.Max}
}
