// Package session implements the per-client streaming session: a fixed
// 5-second tick that queries the manager's live state for one viewport,
// applies an optionally-compiled filter, diffs against what this client
// was last sent, and emits set/delete event messages. Grounded on the
// original Session::run loop.
package session

import (
	"vatlive/internal/filter"
	"vatlive/internal/fixed"
	"vatlive/internal/upstream"
)

// PilotView is the value snapshot of a pilot sent to a client. It is a
// plain copy, not a live pointer, so storing one in pilotsState is
// unaffected by later reconciliation-loop mutation of the manager's own
// pilot entity.
type PilotView struct {
	CID         int       `json:"cid"`
	Name        string    `json:"name"`
	Callsign    string    `json:"callsign"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Altitude    int       `json:"altitude"`
	Groundspeed int       `json:"groundspeed"`
	Heading     int16     `json:"heading"`
	Transponder string    `json:"transponder"`
	QNHInHg     uint16    `json:"qnh_i_hg"`
	QNHMb       uint16    `json:"qnh_mb"`
	FlightPlan  *upstream.FlightPlan `json:"flight_plan,omitempty"`
	TrackCode   string    `json:"track_code"`
}

func newPilotView(p *upstream.Pilot) PilotView {
	v := PilotView{
		CID:         p.CID,
		Name:        p.Name,
		Callsign:    p.Callsign,
		Lat:         p.Position.Lat,
		Lng:         p.Position.Lng,
		Altitude:    p.Altitude,
		Groundspeed: p.Groundspeed,
		Heading:     p.Heading,
		Transponder: p.Transponder,
		QNHInHg:     p.QNHInHg,
		QNHMb:       p.QNHMb,
		TrackCode:   p.TrackCode(),
	}
	if p.FlightPlan != nil {
		fp := *p.FlightPlan
		v.FlightPlan = &fp
	}
	return v
}

func (v PilotView) equal(o PilotView) bool {
	if v.CID != o.CID || v.Name != o.Name || v.Callsign != o.Callsign ||
		v.Lat != o.Lat || v.Lng != o.Lng || v.Altitude != o.Altitude ||
		v.Groundspeed != o.Groundspeed || v.Heading != o.Heading ||
		v.Transponder != o.Transponder || v.QNHInHg != o.QNHInHg || v.QNHMb != o.QNHMb ||
		v.TrackCode != o.TrackCode {
		return false
	}
	if (v.FlightPlan == nil) != (o.FlightPlan == nil) {
		return false
	}
	if v.FlightPlan == nil {
		return true
	}
	return *v.FlightPlan == *o.FlightPlan
}

func (v PilotView) fields() (out filter.PilotFields) {
	out.Callsign = v.Callsign
	out.Name = v.Name
	out.Alt = int64(v.Altitude)
	out.GS = int64(v.Groundspeed)
	out.Lat = v.Lat
	out.Lng = v.Lng
	if v.FlightPlan != nil {
		out.HasFlightPlan = true
		out.Aircraft = v.FlightPlan.Aircraft
		out.Arrival = v.FlightPlan.Arrival
		out.Departure = v.FlightPlan.Departure
	}
	return out
}

// RunwayView is a value snapshot of one runway's activation state.
type RunwayView struct {
	Ident     string `json:"ident"`
	ActiveLnd bool   `json:"active_lnd"`
	ActiveTo  bool   `json:"active_to"`
}

// AirportView is the value snapshot of an airport sent to a client.
type AirportView struct {
	CompoundID string       `json:"compound_id"`
	ICAO       string       `json:"icao"`
	IATA       string       `json:"iata"`
	Name       string       `json:"name"`
	Lat        float64      `json:"lat"`
	Lng        float64      `json:"lng"`
	Runways    []RunwayView `json:"runways"`
	ATIS       string       `json:"atis,omitempty"`
	HasTower   bool         `json:"has_tower"`
	HasGround  bool         `json:"has_ground"`
	HasApproach bool        `json:"has_approach"`
	HasDelivery bool        `json:"has_delivery"`
}

func newAirportView(a *fixed.Airport) AirportView {
	v := AirportView{
		CompoundID:  a.CompoundID(),
		ICAO:        a.ICAO,
		IATA:        a.IATA,
		Name:        a.Name,
		Lat:         a.Position.Lat,
		Lng:         a.Position.Lng,
		HasTower:    a.Controllers.Tower != nil,
		HasGround:   a.Controllers.Ground != nil,
		HasApproach: a.Controllers.Approach != nil,
		HasDelivery: a.Controllers.Delivery != nil,
	}
	if a.Controllers.ATIS != nil {
		v.ATIS = a.Controllers.ATIS.TextATIS
	}
	for ident, rw := range a.Runways {
		v.Runways = append(v.Runways, RunwayView{Ident: ident, ActiveLnd: rw.ActiveLnd, ActiveTo: rw.ActiveTo})
	}
	return v
}

func (v AirportView) equal(o AirportView) bool {
	if v.CompoundID != o.CompoundID || v.ICAO != o.ICAO || v.IATA != o.IATA || v.Name != o.Name ||
		v.Lat != o.Lat || v.Lng != o.Lng || v.ATIS != o.ATIS ||
		v.HasTower != o.HasTower || v.HasGround != o.HasGround ||
		v.HasApproach != o.HasApproach || v.HasDelivery != o.HasDelivery {
		return false
	}
	if len(v.Runways) != len(o.Runways) {
		return false
	}
	om := make(map[string]RunwayView, len(o.Runways))
	for _, r := range o.Runways {
		om[r.Ident] = r
	}
	for _, r := range v.Runways {
		if om[r.Ident] != r {
			return false
		}
	}
	return true
}

// FIRView is the value snapshot of a FIR sent to a client.
type FIRView struct {
	ICAO        string   `json:"icao"`
	Name        string   `json:"name"`
	Prefix      string   `json:"prefix"`
	Controllers []string `json:"controllers"`
}

func newFIRView(f *fixed.FIR) FIRView {
	v := FIRView{ICAO: f.ICAO, Name: f.Name, Prefix: f.Prefix}
	for cs := range f.Controllers {
		v.Controllers = append(v.Controllers, cs)
	}
	return v
}

func (v FIRView) equal(o FIRView) bool {
	if v.ICAO != o.ICAO || v.Name != o.Name || v.Prefix != o.Prefix || len(v.Controllers) != len(o.Controllers) {
		return false
	}
	seen := make(map[string]bool, len(o.Controllers))
	for _, c := range o.Controllers {
		seen[c] = true
	}
	for _, c := range v.Controllers {
		if !seen[c] {
			return false
		}
	}
	return true
}

