package track

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds connection settings for the shared, multi-instance
// backend.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tracks (
	id          SERIAL PRIMARY KEY,
	code        TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS track_points (
	track_id  INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
	lat       DOUBLE PRECISION NOT NULL,
	lng       DOUBLE PRECISION NOT NULL,
	alt       INTEGER NOT NULL,
	hdg       INTEGER NOT NULL,
	gs        INTEGER NOT NULL,
	ts        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_track_points_track_ts ON track_points(track_id, ts);
`

// PostgresStore is the shared relational backend for multi-instance
// deployments, grounded on the teacher's storage.PostgresDB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	escapedPassword := url.QueryEscape(cfg.Password)
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, escapedPassword, cfg.Host, cfg.Port, cfg.Database, sslMode)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("track: parse postgres config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("track: open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("track: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("track: create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) trackID(ctx context.Context, code string, createdAt time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tracks (code, created_at) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
		RETURNING id
	`, code, createdAt).Scan(&id)
	return id, err
}

func (s *PostgresStore) StorePosition(ctx context.Context, p Position) error {
	id, err := s.trackID(ctx, p.Code, p.Timestamp)
	if err != nil {
		return fmt.Errorf("track: resolve track id: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO track_points (track_id, lat, lng, alt, hdg, gs, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, p.Lat, p.Lng, p.Altitude, p.Heading, p.Groundspeed, p.Timestamp)
	if err != nil {
		return fmt.Errorf("track: insert point: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTrackPoints(ctx context.Context, code string) ([]Point, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tp.lat, tp.lng, tp.alt, tp.hdg, tp.gs, tp.ts
		FROM track_points tp
		JOIN tracks t ON t.id = tp.track_id
		WHERE t.code = $1
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

func (s *PostgresStore) Counters(ctx context.Context) (Counters, error) {
	var c Counters
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&c.Tracks); err != nil {
		return c, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM track_points`).Scan(&c.TrackPoints); err != nil {
		return c, err
	}
	return c, nil
}

func (s *PostgresStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM tracks
		WHERE id NOT IN (SELECT track_id FROM track_points WHERE ts >= $1)
	`, cutoff)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("track: cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
