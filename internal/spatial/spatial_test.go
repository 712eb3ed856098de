package spatial

import (
	"sort"
	"testing"

	"vatlive/internal/geo"
)

func TestPilotIndexUpsertIsIdempotent(t *testing.T) {
	idx := NewPilotIndex()
	idx.Upsert("AAL1", geo.Point{Lat: 40, Lng: -74})
	idx.Upsert("AAL1", geo.Point{Lat: 41, Lng: -75})
	if idx.Len() != 1 {
		t.Fatalf("expected exactly one entry after re-upsert, got %d", idx.Len())
	}
	if !idx.Has("AAL1") {
		t.Fatal("expected AAL1 present")
	}
}

func TestPilotIndexRemove(t *testing.T) {
	idx := NewPilotIndex()
	idx.Upsert("AAL1", geo.Point{Lat: 40, Lng: -74})
	idx.Remove("AAL1")
	if idx.Has("AAL1") {
		t.Fatal("expected AAL1 removed")
	}
	idx.Remove("AAL1") // idempotent
	if idx.Len() != 0 {
		t.Fatalf("expected empty index, got %d", idx.Len())
	}
}

func TestPilotIndexQueryWrappedRect(t *testing.T) {
	idx := NewPilotIndex()
	idx.Upsert("EAST", geo.Point{Lat: 5, Lng: 175})
	idx.Upsert("WEST", geo.Point{Lat: 5, Lng: -175})
	idx.Upsert("FAR", geo.Point{Lat: 5, Lng: 0})

	r := geo.Rect{SW: geo.Point{Lat: 0, Lng: 170}, NE: geo.Point{Lat: 10, Lng: -170}}
	got := idx.QueryRect(r)
	sort.Strings(got)
	want := []string{"EAST", "WEST"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
