package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vatlive/internal/fixed"
	"vatlive/internal/geo"
	"vatlive/internal/session"
	"vatlive/internal/track"
	"vatlive/internal/upstream"
)

type fakeManager struct {
	pilots   map[string]*upstream.Pilot
	airports map[string]*fixed.Airport
}

func (f *fakeManager) GetPilots(r geo.Rect, noBounds bool) []*upstream.Pilot {
	var out []*upstream.Pilot
	for _, p := range f.pilots {
		out = append(out, p)
	}
	return out
}
func (f *fakeManager) GetAirports(r geo.Rect, noBounds bool) []*fixed.Airport { return nil }
func (f *fakeManager) GetFIRs(r geo.Rect, noBounds bool) []*fixed.FIR         { return nil }
func (f *fakeManager) GetPilot(callsign string) (*upstream.Pilot, bool) {
	p, ok := f.pilots[callsign]
	return p, ok
}
func (f *fakeManager) FindAirport(code string) (*fixed.Airport, bool) {
	a, ok := f.airports[code]
	return a, ok
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := &fakeManager{
		pilots:   map[string]*upstream.Pilot{"AAL1": {CID: 1, Callsign: "AAL1", Position: geo.Point{Lat: 1, Lng: 1}}},
		airports: map[string]*fixed.Airport{"KSEA": {ICAO: "KSEA", IATA: "SEA"}},
	}
	tracks, err := track.OpenSQLite("")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { tracks.Close() })
	reg := prometheus.NewRegistry()
	return New(mgr, tracks, nil, reg, BuildInfo{Version: "test"})
}

func TestHandleAirportFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/airports/KSEA", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleAirportNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/airports/ZZZZ", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestHandlePilotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/pilots/AAL1", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCheckQueryValid(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/chkquery?query=alt+%3E+1000", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleCheckQueryInvalid(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/chkquery?query=alt+%3E", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestHandleBuildInfo(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/__build__", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	var info BuildInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "test" {
		t.Fatalf("unexpected build info: %+v", info)
	}
}

func TestHandleUpdatesStreamsOneEvent(t *testing.T) {
	original := session.TickInterval
	session.TickInterval = 20 * time.Millisecond
	t.Cleanup(func() { session.TickInterval = original })

	s := newTestServer(t)
	r := s.Router()

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/updates/-10/-10/10/10/5", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	if !scanner.Scan() {
		t.Fatal("expected at least one SSE line before timeout")
	}
	if !strings.HasPrefix(scanner.Text(), "data: ") {
		t.Fatalf("expected data: prefix, got %q", scanner.Text())
	}
}

