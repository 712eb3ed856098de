package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("upstream:\n  url: https://example.test/vatsim-data.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Upstream.URL != "https://example.test/vatsim-data.json" {
		t.Fatalf("unexpected upstream url: %q", cfg.Upstream.URL)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Track.Backend != "sqlite" {
		t.Fatalf("expected default track backend sqlite, got %q", cfg.Track.Backend)
	}
	if cfg.Weather.TTL != Duration(15*time.Minute) {
		t.Fatalf("expected default weather ttl, got %v", cfg.Weather.TTL)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  listen_addr: \":9090\"\ntrack:\n  backend: postgres\n  retention: 720h\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Fatalf("unexpected listen addr: %q", cfg.Server.ListenAddr)
	}
	if cfg.Track.Backend != "postgres" {
		t.Fatalf("unexpected backend: %q", cfg.Track.Backend)
	}
	if cfg.Track.Retention != Duration(720*time.Hour) {
		t.Fatalf("unexpected retention: %v", cfg.Track.Retention)
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
