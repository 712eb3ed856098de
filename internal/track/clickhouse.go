package track

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// ClickHouseConfig holds connection settings for the bulk trackpoint
// analytics backend.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// ClickHouseStore is an append-mostly backend for bulk trackpoint
// retention/analytics. The "clickhouse" track backend uses it alone; the
// "postgres+clickhouse" and "sqlite+clickhouse" backends write to it
// alongside a relational primary through DualStore, which serves reads
// from the primary. Its schema is MergeTree-oriented and not optimized for
// the single-track point lookups the pilot-detail endpoint needs.
type ClickHouseStore struct {
	conn driver.Conn
}

func OpenClickHouse(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("track: open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("track: ping clickhouse: %w", err)
	}

	s := &ClickHouseStore{conn: conn}
	if err := s.createSchema(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseStore) createSchema(ctx context.Context) error {
	return s.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS track_points (
			code    LowCardinality(String),
			lat     Float64,
			lng     Float64,
			alt     Int32,
			hdg     Int32,
			gs      Int32,
			ts      DateTime64(3)
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (code, ts)
	`)
}

func (s *ClickHouseStore) StorePosition(ctx context.Context, p Position) error {
	return s.conn.Exec(ctx, `
		INSERT INTO track_points (code, lat, lng, alt, hdg, gs, ts) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.Code, p.Lat, p.Lng, p.Altitude, p.Heading, p.Groundspeed, p.Timestamp)
}

func (s *ClickHouseStore) GetTrackPoints(ctx context.Context, code string) ([]Point, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT lat, lng, alt, hdg, gs, ts FROM track_points WHERE code = ? ORDER BY ts ASC
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

func (s *ClickHouseStore) Counters(ctx context.Context) (Counters, error) {
	var c Counters
	row := s.conn.QueryRow(ctx, `SELECT uniqExact(code), count() FROM track_points`)
	if err := row.Scan(&c.Tracks, &c.TrackPoints); err != nil {
		return c, fmt.Errorf("track: counters: %w", err)
	}
	return c, nil
}

// Cleanup deletes every track whose most recent point is older than
// retention, with all its points, through an ALTER TABLE ... DELETE
// mutation. ClickHouse runs mutations asynchronously in the background, so
// the reported count is the number of stale tracks found by a preceding
// count query.
func (s *ClickHouseStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	var estimate int64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM (SELECT code FROM track_points GROUP BY code HAVING max(ts) < ?)`, cutoff)
	if err := row.Scan(&estimate); err != nil {
		return 0, fmt.Errorf("track: cleanup estimate: %w", err)
	}
	if err := s.conn.Exec(ctx, `ALTER TABLE track_points DELETE WHERE code IN (SELECT code FROM track_points GROUP BY code HAVING max(ts) < ?)`, cutoff); err != nil {
		return 0, fmt.Errorf("track: cleanup: %w", err)
	}
	return estimate, nil
}

func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}
