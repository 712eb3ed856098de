package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"vatlive/internal/fixed"
	"vatlive/internal/geo"
)

func pointOf(lat, lng float64) geo.Point {
	return geo.Point{Lat: lat, Lng: lng}.Clamp()
}

// flexFloat decodes a JSON value that may arrive as a quoted string or a
// bare number, following the teacher's acars.FlexInt64 dual-representation
// idiom.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexFloat: %w", err)
	}
	*f = flexFloat(v)
	return nil
}

type wireFlightPlan struct {
	FlightRules string    `json:"flight_rules"`
	Aircraft    string    `json:"aircraft"`
	Departure   string    `json:"departure"`
	Arrival     string    `json:"arrival"`
	Alternate   string    `json:"alternate"`
	CruiseTAS   string    `json:"cruise_tas"`
	Altitude    string    `json:"altitude"`
	DepTime     string    `json:"deptime"`
	EnrouteTime string    `json:"enroute_time"`
	FuelTime    string    `json:"fuel_time"`
	Remarks     string    `json:"remarks"`
	Route       string    `json:"route"`
}

type wirePilot struct {
	CID         int             `json:"cid"`
	Name        string          `json:"name"`
	Callsign    string          `json:"callsign"`
	Server      string          `json:"server"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Altitude    int             `json:"altitude"`
	Groundspeed int             `json:"groundspeed"`
	Heading     int16           `json:"heading"`
	Transponder string          `json:"transponder"`
	QNHInHg     flexFloat       `json:"qnh_i_hg"`
	QNHMb       int             `json:"qnh_mb"`
	FlightPlan  *wireFlightPlan `json:"flight_plan"`
	LogonTime   string          `json:"logon_time"`
	LastUpdated string          `json:"last_updated"`
}

type wireController struct {
	CID         int      `json:"cid"`
	Name        string   `json:"name"`
	Callsign    string   `json:"callsign"`
	Frequency   string   `json:"frequency"`
	Facility    int      `json:"facility"`
	Range       int      `json:"visual_range"`
	TextATIS    []string `json:"text_atis"`
	LastUpdated string   `json:"last_updated"`
}

type wireGeneral struct {
	UpdatedAt string `json:"update_timestamp"`
}

type wireSnapshot struct {
	General     wireGeneral      `json:"general"`
	Pilots      []wirePilot      `json:"pilots"`
	Controllers []wireController `json:"controllers"`
}

// ParseFailures counts upstream timestamps that failed RFC-3339 parsing
// and fell back to "now", per spec §9's documented compromise.
var ParseFailures atomic.Uint64

func parseTimeOrNow(s string) time.Time {
	if s == "" {
		ParseFailures.Add(1)
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		ParseFailures.Add(1)
		return time.Now().UTC()
	}
	return t.UTC()
}

// Fetcher pulls and decodes one snapshot from a configured URL.
type Fetcher struct {
	URL     string
	Client  *http.Client
	Aircraft *fixed.AircraftTable
}

func NewFetcher(url string, aircraft *fixed.AircraftTable) *Fetcher {
	return &Fetcher{
		URL:      url,
		Client:   &http.Client{Timeout: 15 * time.Second},
		Aircraft: aircraft,
	}
}

// Fetch pulls and decodes one snapshot. A network or decode error is
// reported to the caller, who is expected to skip the current tick —
// Fetch itself never retries.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream: unexpected status %d", resp.StatusCode)
	}

	var wire wireSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("upstream: decode: %w", err)
	}
	return f.normalize(wire), nil
}

func (f *Fetcher) normalize(wire wireSnapshot) *Snapshot {
	snap := &Snapshot{
		UpdatedAt:   parseTimeOrNow(wire.General.UpdatedAt),
		Pilots:      make([]Pilot, 0, len(wire.Pilots)),
		Controllers: make([]Controller, 0, len(wire.Controllers)),
	}
	for _, wp := range wire.Pilots {
		snap.Pilots = append(snap.Pilots, f.normalizePilot(wp))
	}
	for _, wc := range wire.Controllers {
		snap.Controllers = append(snap.Controllers, normalizeController(wc))
	}
	return snap
}

func (f *Fetcher) normalizePilot(wp wirePilot) Pilot {
	p := Pilot{
		CID:         wp.CID,
		Name:        wp.Name,
		Callsign:    wp.Callsign,
		Server:      wp.Server,
		Position:    pointOf(wp.Latitude, wp.Longitude),
		Altitude:    wp.Altitude,
		Groundspeed: wp.Groundspeed,
		Heading:     wp.Heading,
		Transponder: wp.Transponder,
		QNHInHg:     uint16(round(float64(wp.QNHInHg) * 100)),
		QNHMb:       uint16(wp.QNHMb),
		LogonTime:   parseTimeOrNow(wp.LogonTime),
		LastUpdated: parseTimeOrNow(wp.LastUpdated),
	}
	if wp.FlightPlan != nil {
		p.FlightPlan = &FlightPlan{
			Rules:       wp.FlightPlan.FlightRules,
			Aircraft:    wp.FlightPlan.Aircraft,
			Departure:   wp.FlightPlan.Departure,
			Arrival:     wp.FlightPlan.Arrival,
			Alternate:   wp.FlightPlan.Alternate,
			CruiseTAS:   atoiOr0(wp.FlightPlan.CruiseTAS),
			Altitude:    atoiOr0(wp.FlightPlan.Altitude),
			DepTime:     wp.FlightPlan.DepTime,
			EnrouteTime: wp.FlightPlan.EnrouteTime,
			FuelTime:    wp.FlightPlan.FuelTime,
			Remarks:     wp.FlightPlan.Remarks,
			Route:       wp.FlightPlan.Route,
		}
		if f.Aircraft != nil && p.FlightPlan.Aircraft != "" {
			p.AircraftTypes = f.Aircraft.Guess(p.FlightPlan.Aircraft)
		}
	}
	return p
}

func normalizeController(wc wireController) Controller {
	freqMHz, _ := strconv.ParseFloat(wc.Frequency, 64)
	return Controller{
		Callsign:    wc.Callsign,
		CID:         wc.CID,
		Name:        wc.Name,
		Frequency:   int(freqMHz * 1000),
		Facility:    fixed.FacilityFromInt(wc.Facility),
		Range:       wc.Range,
		TextATIS:    strings.Join(wc.TextATIS, "\n"),
		LastUpdated: parseTimeOrNow(wc.LastUpdated),
	}
}

func atoiOr0(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func round(v float64) float64 {
	if v < 0 {
		return -round(-v)
	}
	return float64(int64(v + 0.5))
}
