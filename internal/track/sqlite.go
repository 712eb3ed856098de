package track

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	code TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS track_points (
	track_id INTEGER NOT NULL REFERENCES tracks(id),
	lat REAL NOT NULL,
	lng REAL NOT NULL,
	alt INTEGER NOT NULL,
	hdg INTEGER NOT NULL,
	gs INTEGER NOT NULL,
	ts TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_track_points_track_ts ON track_points(track_id, ts);
`

// SQLiteStore is the default embedded backend, directly grounded on the
// teacher's state.Tracker: a sql.DB opened in WAL mode, an in-memory
// track-id cache guarded by a RWMutex, schema-on-open.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
	idByCode map[string]int64
}

// OpenSQLite opens (creating if absent) a SQLite track store at path; an
// empty path opens an in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("track: open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("track: create schema: %w", err)
	}
	return &SQLiteStore{db: db, idByCode: make(map[string]int64)}, nil
}

func (s *SQLiteStore) trackID(ctx context.Context, code string, createdAt time.Time) (int64, error) {
	s.mu.RLock()
	id, ok := s.idByCode[code]
	s.mu.RUnlock()
	if ok {
		return id, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.idByCode[code]; ok {
		return id, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks (code, created_at) VALUES (?, ?) ON CONFLICT(code) DO NOTHING`,
		code, createdAt)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil || id == 0 {
		var existing int64
		if err := s.db.QueryRowContext(ctx, `SELECT id FROM tracks WHERE code = ?`, code).Scan(&existing); err != nil {
			return 0, err
		}
		id = existing
	}
	s.idByCode[code] = id
	return id, nil
}

func (s *SQLiteStore) StorePosition(ctx context.Context, p Position) error {
	id, err := s.trackID(ctx, p.Code, p.Timestamp)
	if err != nil {
		return fmt.Errorf("track: resolve track id: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO track_points (track_id, lat, lng, alt, hdg, gs, ts) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.Lat, p.Lng, p.Altitude, p.Heading, p.Groundspeed, p.Timestamp)
	if err != nil {
		return fmt.Errorf("track: insert point: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTrackPoints(ctx context.Context, code string) ([]Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tp.lat, tp.lng, tp.alt, tp.hdg, tp.gs, tp.ts
		FROM track_points tp
		JOIN tracks t ON t.id = tp.track_id
		WHERE t.code = ?
		ORDER BY tp.ts ASC
	`, code)
	if err != nil {
		return nil, fmt.Errorf("track: query points: %w", err)
	}
	defer rows.Close()

	var out []Point
	for rows.Next() {
		var pt Point
		if err := rows.Scan(&pt.Lat, &pt.Lng, &pt.Altitude, &pt.Heading, &pt.Groundspeed, &pt.Timestamp); err != nil {
			return nil, fmt.Errorf("track: scan point: %w", err)
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Counters(ctx context.Context) (Counters, error) {
	var c Counters
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&c.Tracks); err != nil {
		return c, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_points`).Scan(&c.TrackPoints); err != nil {
		return c, err
	}
	return c, nil
}

func (s *SQLiteStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.code FROM tracks t
		WHERE t.id NOT IN (
			SELECT track_id FROM track_points WHERE ts >= ?
		)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("track: find stale tracks: %w", err)
	}
	var staleIDs []int64
	var staleCodes []string
	for rows.Next() {
		var id int64
		var code string
		if err := rows.Scan(&id, &code); err != nil {
			rows.Close()
			return 0, err
		}
		staleIDs = append(staleIDs, id)
		staleCodes = append(staleCodes, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range staleIDs {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM track_points WHERE track_id = ?`, id); err != nil {
			continue
		}
		if _, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
			continue
		}
		delete(s.idByCode, staleCodes[i])
		deleted++
	}
	return deleted, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
