package upstream

import (
	"testing"

	"vatlive/internal/fixed"
)

func TestNormalizeControllerFrequencyAndATIS(t *testing.T) {
	wc := wireController{
		Callsign:  "EGLL_TWR",
		Frequency: "118.5",
		Facility:  4,
		TextATIS:  []string{"line one", "line two"},
	}
	c := normalizeController(wc)
	if c.Frequency != 118500 {
		t.Fatalf("expected 118500 kHz, got %d", c.Frequency)
	}
	if c.Facility != fixed.FacilityTower {
		t.Fatalf("expected tower facility, got %v", c.Facility)
	}
	if c.TextATIS != "line one\nline two" {
		t.Fatalf("expected joined ATIS text, got %q", c.TextATIS)
	}
}

func TestNormalizeControllerUnknownFacility(t *testing.T) {
	c := normalizeController(wireController{Facility: 42})
	if c.Facility != fixed.FacilityReject {
		t.Fatalf("expected reject for unknown facility, got %v", c.Facility)
	}
}

func TestParseTimeOrNowFallback(t *testing.T) {
	before := ParseFailures.Load()
	got := parseTimeOrNow("not-a-timestamp")
	if got.IsZero() {
		t.Fatal("expected fallback to now, got zero time")
	}
	if ParseFailures.Load() != before+1 {
		t.Fatal("expected parse-failure counter to increment")
	}
}

func TestNormalizePilotQNHRounding(t *testing.T) {
	f := &Fetcher{}
	wp := wirePilot{QNHInHg: 29.921}
	p := f.normalizePilot(wp)
	if p.QNHInHg != 2992 {
		t.Fatalf("expected 2992 hundredths, got %d", p.QNHInHg)
	}
}

func TestAircraftTypeGuessedFromFlightPlan(t *testing.T) {
	table := fixed.NewAircraftTable([]*fixed.Aircraft{{Designator: "A320", Name: "Airbus A320"}})
	f := &Fetcher{Aircraft: table}
	wp := wirePilot{FlightPlan: &wireFlightPlan{Aircraft: "A320"}}
	p := f.normalizePilot(wp)
	if len(p.AircraftTypes) != 1 || p.AircraftTypes[0].Name != "Airbus A320" {
		t.Fatalf("expected guessed aircraft type, got %v", p.AircraftTypes)
	}
}
