package track

import (
	"context"
	"testing"
	"time"
)

func TestSQLiteStorePositionAndQuery(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite("")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		p := Position{
			Code:      "123:AAL1:1234567890",
			Lat:       40 + float64(i),
			Lng:       -74,
			Altitude:  35000,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.StorePosition(ctx, p); err != nil {
			t.Fatalf("StorePosition: %v", err)
		}
	}

	points, err := s.GetTrackPoints(ctx, "123:AAL1:1234567890")
	if err != nil {
		t.Fatalf("GetTrackPoints: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Timestamp.After(points[i-1].Timestamp) {
			t.Fatalf("expected points ordered by timestamp ascending")
		}
	}

	counters, err := s.Counters(ctx)
	if err != nil {
		t.Fatalf("Counters: %v", err)
	}
	if counters.Tracks != 1 || counters.TrackPoints != 3 {
		t.Fatalf("unexpected counters: %+v", counters)
	}
}

func TestSQLiteCleanupRemovesStaleTracks(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite("")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	old := Position{Code: "1:OLD1:1", Timestamp: time.Now().Add(-48 * time.Hour)}
	fresh := Position{Code: "2:NEW1:2", Timestamp: time.Now()}
	if err := s.StorePosition(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.StorePosition(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.Cleanup(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted track, got %d", deleted)
	}

	points, err := s.GetTrackPoints(ctx, "1:OLD1:1")
	if err != nil {
		t.Fatalf("GetTrackPoints: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected stale track purged, got %d points", len(points))
	}
}
