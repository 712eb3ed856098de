package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	snap  Snapshot
	tally map[int64]int64
}

func (f fakeSource) Snapshot() Snapshot            { return f.snap }
func (f fakeSource) CountryTally() map[int64]int64 { return f.tally }

func TestCollectorEmitsExpectedSeries(t *testing.T) {
	src := fakeSource{
		snap: Snapshot{
			PilotsOnline:      3,
			ControllersOnline: 1,
			TrackCount:        10,
			TrackPointCount:   200,
			VatsimDataTimestamp: 940,
		},
		tally: map[int64]int64{4744870: 2},
	}
	c := NewCollector(src, func() int64 { return 1000 })

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(c); err != nil {
		t.Fatalf("register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	byName := make(map[string]bool, len(families))
	var dataAge float64
	for _, f := range families {
		byName[f.GetName()] = true
		if f.GetName() == "vatsim_data_age_sec" {
			dataAge = f.Metric[0].GetGauge().GetValue()
		}
	}

	for _, want := range []string{
		"vatsim_objects_online",
		"database_objects_count",
		"vatsim_data_age_sec",
		"vatsim_data_load_time_sec",
		"processing_time_sec",
		"db_cleanup_time_sec",
		"vatsim_pilots_by_country",
	} {
		if !byName[want] {
			t.Errorf("expected metric family %q to be emitted", want)
		}
	}

	if dataAge != 60 {
		t.Errorf("expected vatsim_data_age_sec = 1000-940 = 60, got %v", dataAge)
	}
}
