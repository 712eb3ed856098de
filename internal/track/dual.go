package track

import (
	"context"
	"log"
	"time"
)

// DualStore writes every position to both a primary (point-lookup
// capable) store and a secondary bulk-analytics store, reading and
// cleaning up only through the primary. Used by the "postgres+clickhouse"
// and "sqlite+clickhouse" track backends (SPEC_FULL.md §4.F), so the
// pilot-detail endpoint's single-track lookups are served by the
// relational primary rather than ClickHouse's MergeTree layout.
type DualStore struct {
	Primary   Store
	Secondary Store
}

func (d *DualStore) StorePosition(ctx context.Context, p Position) error {
	err := d.Primary.StorePosition(ctx, p)
	if secErr := d.Secondary.StorePosition(ctx, p); secErr != nil {
		log.Printf("track: secondary store write failed for %s: %v", p.Code, secErr)
	}
	return err
}

func (d *DualStore) GetTrackPoints(ctx context.Context, code string) ([]Point, error) {
	return d.Primary.GetTrackPoints(ctx, code)
}

func (d *DualStore) Counters(ctx context.Context) (Counters, error) {
	return d.Primary.Counters(ctx)
}

func (d *DualStore) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	return d.Primary.Cleanup(ctx, retention)
}

func (d *DualStore) Close() error {
	err := d.Primary.Close()
	if secErr := d.Secondary.Close(); secErr != nil && err == nil {
		err = secErr
	}
	return err
}
