// Command vatlive runs the live network state server: it polls the
// upstream feed, reconciles it into the shared in-memory state, and
// serves the HTTP/SSE API and Prometheus metrics endpoint described in
// SPEC_FULL.md. Grounded on the teacher's cmd/acars_parser/main.go
// (flag.NewFlagSet, explicit stderr+exit-code error reporting) and
// benburwell-firehose's cmd/stream_positions/main.go (signal.NotifyContext
// driving a top-level Run(ctx) error).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vatlive/internal/api"
	"vatlive/internal/bus"
	"vatlive/internal/config"
	"vatlive/internal/geo"
	"vatlive/internal/manager"
	"vatlive/internal/metrics"
	"vatlive/internal/session"
	"vatlive/internal/track"
	"vatlive/internal/upstream"
	"vatlive/internal/weather"
)

var (
	version = "dev"
	commit  = "none"
	builtAt = "unknown"
)

func main() {
	fs := flag.NewFlagSet("vatlive", flag.ExitOnError)
	configPath := fs.String("config", "vatlive.yaml", "path to the YAML configuration file")
	_ = fs.Parse(os.Args[1:])

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "vatlive:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fixedStore, err := loadFixedData(cfg.Fixed)
	if err != nil {
		return fmt.Errorf("load fixed data: %w", err)
	}

	tracks, err := openTrackStore(ctx, cfg.Track)
	if err != nil {
		return fmt.Errorf("open track store: %w", err)
	}
	defer tracks.Close()

	fetcher := upstream.NewFetcher(cfg.Upstream.URL, fixedStore.Aircraft)
	wx := weather.New(cfg.Weather.TTL.Duration(), cfg.Weather.BaseURL)

	mgrCfg := manager.Config{
		PollPeriod:         cfg.Upstream.PollPeriod.Duration(),
		TrackRetention:     cfg.Track.Retention.Duration(),
		CleanupEveryNTicks: cfg.Track.CleanupEveryNTicks,
	}
	mgr := manager.New(mgrCfg, fixedStore, fetcher, tracks, wx)
	mgr.BuildStaticIndices()

	go mgr.Run(ctx)

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(metrics.NewCollector(metricsSource{mgr: mgr}, nil))
	}

	if cfg.Bus.Enabled {
		publisher, err := bus.Connect(cfg.Bus.URL)
		if err != nil {
			return fmt.Errorf("connect bus: %w", err)
		}
		defer publisher.Close()
		go runBusPublisher(ctx, mgr, wx, publisher)
	}

	build := api.BuildInfo{Version: version, Commit: commit, BuiltAt: builtAt}
	server := api.New(mgr, tracks, wx, registry, build)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// runBusPublisher drives one unfiltered, full-world session whose every
// tick is mirrored onto the NATS bus instead of an SSE connection.
func runBusPublisher(ctx context.Context, mgr *manager.Manager, wx *weather.Cache, publisher *bus.Publisher) {
	sess := session.New(mgr, wx, geo.Rect{}, true, false, nil)
	if err := sess.Run(ctx, publisher.Publish); err != nil {
		fmt.Fprintln(os.Stderr, "vatlive: bus publisher stopped:", err)
	}
}

func openTrackStore(ctx context.Context, cfg config.TrackConfig) (track.Store, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return track.OpenSQLite(cfg.SQLitePath)
	case "postgres":
		return track.OpenPostgres(ctx, toPostgresConfig(cfg.Postgres))
	case "clickhouse":
		return track.OpenClickHouse(ctx, toClickHouseConfig(cfg.ClickHouse))
	case "postgres+clickhouse":
		return openDualStore(ctx, func() (track.Store, error) { return track.OpenPostgres(ctx, toPostgresConfig(cfg.Postgres)) }, cfg)
	case "sqlite+clickhouse":
		return openDualStore(ctx, func() (track.Store, error) { return track.OpenSQLite(cfg.SQLitePath) }, cfg)
	default:
		return nil, fmt.Errorf("unknown track backend %q", cfg.Backend)
	}
}

func openDualStore(ctx context.Context, openPrimary func() (track.Store, error), cfg config.TrackConfig) (track.Store, error) {
	primary, err := openPrimary()
	if err != nil {
		return nil, fmt.Errorf("open primary: %w", err)
	}
	secondary, err := track.OpenClickHouse(ctx, toClickHouseConfig(cfg.ClickHouse))
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("open clickhouse secondary: %w", err)
	}
	return &track.DualStore{Primary: primary, Secondary: secondary}, nil
}

func toPostgresConfig(c config.PostgresConfig) track.PostgresConfig {
	return track.PostgresConfig{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
		SSLMode:  c.SSLMode,
	}
}

func toClickHouseConfig(c config.ClickHouseConfig) track.ClickHouseConfig {
	return track.ClickHouseConfig{
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		User:     c.User,
		Password: c.Password,
	}
}
