package fixed

import (
	"testing"
	"time"
)

func TestFacilityRoundTrip(t *testing.T) {
	for code := 1; code <= 6; code++ {
		f := FacilityFromInt(code)
		if f.Int() != code {
			t.Errorf("code %d did not round-trip: got %d", code, f.Int())
		}
	}
	for _, code := range []int{-1, 0, 7, 99} {
		if FacilityFromInt(code) != FacilityReject {
			t.Errorf("code %d expected Reject, got %v", code, FacilityFromInt(code))
		}
	}
}

func TestControllerEqualIgnoresLastUpdated(t *testing.T) {
	base := Controller{Callsign: "EGLL_TWR", Facility: FacilityTower, Frequency: 118500}
	a := base
	a.LastUpdated = time.Unix(1, 0)
	b := base
	b.LastUpdated = time.Unix(2, 0)
	if !a.Equal(b) {
		t.Fatal("expected controllers equal ignoring LastUpdated")
	}
	c := base
	c.Frequency = 118700
	if a.Equal(c) {
		t.Fatal("expected controllers with differing frequency to be unequal")
	}
}

func TestAircraftGuessLongestPrefix(t *testing.T) {
	models := []*Aircraft{
		{Designator: "A32", Name: "Airbus A320 family"},
		{Designator: "A320", Name: "Airbus A320"},
	}
	table := NewAircraftTable(models)

	got := table.Guess("A320")
	if len(got) != 1 || got[0].Name != "Airbus A320" {
		t.Fatalf("expected exact 4-char match, got %v", got)
	}

	got = table.Guess("A32X")
	if len(got) != 1 || got[0].Name != "Airbus A320 family" {
		t.Fatalf("expected fallback to 3-char prefix, got %v", got)
	}

	if got := table.Guess(""); got != nil {
		t.Fatalf("expected no match for empty code, got %v", got)
	}
}

func TestDetectRunwaysFromATIS(t *testing.T) {
	text := NormalizeATISText("landing rwy 27L,27R departing rwy 27R")
	arr := DetectArrivalRunways(text)
	dep := DetectDepartureRunways(text)
	if len(arr) != 2 || arr[0] != "27L" || arr[1] != "27R" {
		t.Fatalf("unexpected arrivals: %v", arr)
	}
	if len(dep) != 1 || dep[0] != "27R" {
		t.Fatalf("unexpected departures: %v", dep)
	}
}

func TestDetectRunwaysCombined(t *testing.T) {
	text := NormalizeATISText("rwy 09 in use")
	arr := DetectArrivalRunways(text)
	dep := DetectDepartureRunways(text)
	if len(arr) != 1 || arr[0] != "09" {
		t.Fatalf("unexpected arrivals: %v", arr)
	}
	if len(dep) != 1 || dep[0] != "09" {
		t.Fatalf("unexpected departures: %v", dep)
	}
}
