// Package track implements the append-only per-flight track store: two
// logical collections, Track (keyed by track code) and TrackPoint (keyed
// by track + timestamp), with periodic retention cleanup. Three concrete
// backends share one Store interface so the reconciliation loop and the
// pilot-detail endpoint stay backend-agnostic, following the teacher's
// storage.DB{CH, PG} composition idiom.
package track

import (
	"context"
	"time"
)

// Position is one pilot sample the reconciliation loop appends.
type Position struct {
	Code      string // track code: "{cid}:{callsign}:{logon_unix}"
	Lat       float64
	Lng       float64
	Altitude  int
	Heading   int
	Groundspeed int
	Timestamp time.Time
}

// Point is one persisted track sample, returned in timestamp order.
type Point struct {
	Lat         float64
	Lng         float64
	Altitude    int
	Heading     int
	Groundspeed int
	Timestamp   time.Time
}

// Counters summarizes store size for metrics (§6: database_objects_count).
type Counters struct {
	Tracks      int64
	TrackPoints int64
}

// Store is the backend-agnostic contract every track backend implements.
type Store interface {
	// StorePosition finds or creates the track for p.Code and appends a
	// point. Individual insert failures must not abort the caller's pilot
	// pass (§7) — implementations return the error; the caller logs it
	// and continues.
	StorePosition(ctx context.Context, p Position) error

	// GetTrackPoints returns every point for a track code, ordered by
	// timestamp ascending.
	GetTrackPoints(ctx context.Context, code string) ([]Point, error)

	// Counters returns the current track/trackpoint counts.
	Counters(ctx context.Context) (Counters, error)

	// Cleanup deletes tracks whose most recent point is older than
	// retention, together with their points.
	Cleanup(ctx context.Context, retention time.Duration) (deleted int64, err error)

	Close() error
}
