// Package metrics wraps manager.Metrics in a Prometheus collector,
// exposing the exact metric/label names of the original manager/metrics.rs
// renderer via github.com/prometheus/client_golang.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is the narrow view of manager.Metrics this package reads —
// declared locally so metrics never imports manager (the dependency runs
// the other way: cmd/vatlive wires a manager.Metrics.Snapshot into this
// collector).
type Snapshot struct {
	PilotsOnline                 int
	ControllersOnline            int
	TrackCount                   int64
	TrackPointCount              int64
	VatsimDataTimestamp          int64
	VatsimDataLoadTimeSec        float64
	PilotsProcessingTimeSec      float64
	ControllersProcessingTimeSec float64
	DBCleanupTimeSec             float64
}

// Source supplies the current snapshot and the country reverse-geocode
// tally at collection time.
type Source interface {
	Snapshot() Snapshot
	CountryTally() map[int64]int64
}

// Collector adapts a Source to prometheus.Collector, computing
// vatsim_data_age_sec at scrape time rather than caching it.
type Collector struct {
	source Source
	now    func() int64

	objectsOnline       *prometheus.Desc
	databaseObjects     *prometheus.Desc
	dataAgeSec          *prometheus.Desc
	dataLoadTimeSec     *prometheus.Desc
	processingTimeSec   *prometheus.Desc
	dbCleanupTimeSec    *prometheus.Desc
	countryPilotsOnline *prometheus.Desc
}

// NewCollector builds a Collector; now defaults to time.Now().Unix() when
// nil (tests supply a fixed clock to make vatsim_data_age_sec assertable).
func NewCollector(source Source, now func() int64) *Collector {
	return &Collector{
		source: source,
		now:    now,
		objectsOnline:     prometheus.NewDesc("vatsim_objects_online", "Count of live VATSIM objects by type.", []string{"type"}, nil),
		databaseObjects:   prometheus.NewDesc("database_objects_count", "Count of persisted track objects by type.", []string{"type"}, nil),
		dataAgeSec:        prometheus.NewDesc("vatsim_data_age_sec", "Age in seconds of the last processed snapshot.", nil, nil),
		dataLoadTimeSec:   prometheus.NewDesc("vatsim_data_load_time_sec", "Time to fetch and decode the last snapshot.", nil, nil),
		processingTimeSec: prometheus.NewDesc("processing_time_sec", "Time spent processing one object kind in the last tick.", []string{"object_type"}, nil),
		dbCleanupTimeSec:  prometheus.NewDesc("db_cleanup_time_sec", "Time spent in the last track-store cleanup pass.", nil, nil),
		countryPilotsOnline: prometheus.NewDesc("vatsim_pilots_by_country", "Count of pilots reverse-geocoded to a country.", []string{"geoname_id"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.objectsOnline
	ch <- c.databaseObjects
	ch <- c.dataAgeSec
	ch <- c.dataLoadTimeSec
	ch <- c.processingTimeSec
	ch <- c.dbCleanupTimeSec
	ch <- c.countryPilotsOnline
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.objectsOnline, prometheus.GaugeValue, float64(s.PilotsOnline), "pilot")
	ch <- prometheus.MustNewConstMetric(c.objectsOnline, prometheus.GaugeValue, float64(s.ControllersOnline), "controller")

	ch <- prometheus.MustNewConstMetric(c.databaseObjects, prometheus.GaugeValue, float64(s.TrackCount), "track")
	ch <- prometheus.MustNewConstMetric(c.databaseObjects, prometheus.GaugeValue, float64(s.TrackPointCount), "trackpoint")

	now := c.currentTime()
	age := float64(now - s.VatsimDataTimestamp)
	ch <- prometheus.MustNewConstMetric(c.dataAgeSec, prometheus.GaugeValue, age)
	ch <- prometheus.MustNewConstMetric(c.dataLoadTimeSec, prometheus.GaugeValue, s.VatsimDataLoadTimeSec)
	ch <- prometheus.MustNewConstMetric(c.processingTimeSec, prometheus.GaugeValue, s.PilotsProcessingTimeSec, "pilot")
	ch <- prometheus.MustNewConstMetric(c.processingTimeSec, prometheus.GaugeValue, s.ControllersProcessingTimeSec, "controller")
	ch <- prometheus.MustNewConstMetric(c.dbCleanupTimeSec, prometheus.GaugeValue, s.DBCleanupTimeSec)

	for geonameID, count := range c.source.CountryTally() {
		ch <- prometheus.MustNewConstMetric(c.countryPilotsOnline, prometheus.GaugeValue, float64(count), formatGeonameID(geonameID))
	}
}

func (c *Collector) currentTime() int64 {
	if c.now != nil {
		return c.now()
	}
	return unixNow()
}
