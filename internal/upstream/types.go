// Package upstream fetches and decodes one network snapshot from the
// configured feed URL, applying the field-normalization rules spec §4.C
// pins down: frequency/QNH unit conversion, ATIS line joining, facility
// mapping, timestamp parse-or-now fallback, and aircraft-type guessing.
package upstream

import (
	"strconv"
	"time"

	"vatlive/internal/fixed"
	"vatlive/internal/geo"
)

// FlightPlan is a pilot's filed plan, decoded from the upstream feed.
type FlightPlan struct {
	Rules       string
	Aircraft    string
	Departure   string
	Arrival     string
	Alternate   string
	CruiseTAS   int
	Altitude    int
	DepTime     string
	EnrouteTime string
	FuelTime    string
	Remarks     string
	Route       string
}

// Pilot is one decoded, normalized live aircraft.
type Pilot struct {
	CID           int
	Name          string
	Callsign      string
	Server        string
	Position      geo.Point
	Altitude      int
	Groundspeed   int
	Heading       int16
	Transponder   string
	QNHInHg       uint16 // hundredths of an inch
	QNHMb         uint16
	FlightPlan    *FlightPlan
	LogonTime     time.Time
	LastUpdated   time.Time
	AircraftTypes []*fixed.Aircraft
}

// TrackCode groups a pilot's positions into a single flight.
func (p Pilot) TrackCode() string {
	return strconv.Itoa(p.CID) + ":" + p.Callsign + ":" + strconv.FormatInt(p.LogonTime.Unix(), 10)
}

// Controller is one decoded, normalized live ATC position.
type Controller struct {
	Callsign    string
	CID         int
	Name        string
	Frequency   int // kHz, truncated from decimal-MHz string * 1000
	Facility    fixed.Facility
	Range       int
	TextATIS    string
	LastUpdated time.Time
}

// Snapshot is one decoded network snapshot.
type Snapshot struct {
	UpdatedAt   time.Time
	Pilots      []Pilot
	Controllers []Controller
}
