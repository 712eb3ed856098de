package geo

import "testing"

func TestPointClampIdempotent(t *testing.T) {
	cases := []Point{
		{Lat: 40, Lng: -74},
		{Lat: 95, Lng: 185},
		{Lat: -95, Lng: -185},
		{Lat: 0, Lng: 180},
	}
	for _, p := range cases {
		c1 := p.Clamp()
		c2 := c1.Clamp()
		if c1 != c2 {
			t.Errorf("clamp not idempotent for %v: %v vs %v", p, c1, c2)
		}
		if c1.Lat < -90 || c1.Lat > 90 {
			t.Errorf("lat out of range: %v", c1)
		}
		if c1.Lng <= -180 || c1.Lng > 180 {
			t.Errorf("lng out of range: %v", c1)
		}
	}
}

func TestRectSplitUnwrapped(t *testing.T) {
	r := Rect{SW: Point{Lat: 0, Lng: 170}, NE: Point{Lat: 10, Lng: 175}}
	parts := r.Split()
	if len(parts) != 1 || parts[0] != r {
		t.Fatalf("expected single unsplit rect, got %v", parts)
	}
}

func TestRectSplitWrapped(t *testing.T) {
	r := Rect{SW: Point{Lat: 0, Lng: 170}, NE: Point{Lat: 10, Lng: -170}}
	parts := r.Split()
	if len(parts) != 2 {
		t.Fatalf("expected two envelopes, got %d", len(parts))
	}
	west, east := parts[0], parts[1]
	if west.SW.Lng != 170 || west.NE.Lng != 180 {
		t.Errorf("unexpected west half: %v", west)
	}
	if east.SW.Lng != -180 || east.NE.Lng != -170 {
		t.Errorf("unexpected east half: %v", east)
	}
	if west.SW.Lat != r.SW.Lat || west.NE.Lat != r.NE.Lat {
		t.Errorf("west half lost latitude range: %v", west)
	}
	if east.SW.Lat != r.SW.Lat || east.NE.Lat != r.NE.Lat {
		t.Errorf("east half lost latitude range: %v", east)
	}
}
