// Package api implements the thin HTTP boundary: the SSE update stream,
// the airport/pilot lookups, the filter-check endpoint, build info, and
// the Prometheus scrape endpoint. Grounded on the teacher's
// internal/api/enrichment.go (chi.NewRouter, middleware stack,
// writeJSON/writeError helpers) — SSE itself has no precedent anywhere in
// the pack, so it is implemented directly on stdlib net/http.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vatlive/internal/filter"
	"vatlive/internal/fixed"
	"vatlive/internal/geo"
	"vatlive/internal/session"
	"vatlive/internal/track"
	"vatlive/internal/upstream"
)

// BuildInfo is served verbatim at /api/__build__.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at"`
}

// Manager is the subset of *manager.Manager the API surface depends on.
type Manager interface {
	GetPilots(r geo.Rect, noBounds bool) []*upstream.Pilot
	GetAirports(r geo.Rect, noBounds bool) []*fixed.Airport
	GetFIRs(r geo.Rect, noBounds bool) []*fixed.FIR
	GetPilot(callsign string) (*upstream.Pilot, bool)
	FindAirport(code string) (*fixed.Airport, bool)
}

// WeatherPreloader matches the weather.Cache surface a session needs.
type WeatherPreloader interface {
	Preload(ctx context.Context, ids []string)
}

// Server wires the manager, track store, weather cache and Prometheus
// registry into one chi router.
type Server struct {
	mgr       Manager
	findAirport func(code string) (*fixed.Airport, bool)
	tracks    track.Store
	weather   WeatherPreloader
	registry  *prometheus.Registry
	build     BuildInfo
}

func New(mgr Manager, tracks track.Store, weather WeatherPreloader, registry *prometheus.Registry, build BuildInfo) *Server {
	return &Server{mgr: mgr, findAirport: mgr.FindAirport, tracks: tracks, weather: weather, registry: registry, build: build}
}

// Router builds the chi router for embedding or direct use with
// http.ListenAndServe.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/api/updates/{min_lng}/{min_lat}/{max_lng}/{max_lat}/{zoom}", s.handleUpdates)
	r.Get("/api/airports/{code}", s.handleAirport)
	r.Get("/api/pilots/{callsign}", s.handlePilot)
	r.Get("/api/chkquery", s.handleCheckQuery)
	r.Get("/api/__build__", s.handleBuildInfo)
	r.Handle("/api/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleBuildInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.build)
}

func (s *Server) handleCheckQuery(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	if _, err := filter.ParseAndCompile(query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleAirport(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	a, ok := s.findAirport(code)
	if !ok {
		writeError(w, http.StatusNotFound, "airport not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// pilotDetail embeds the pilot entity plus its full track history.
type pilotDetail struct {
	*upstream.Pilot
	Track []track.Point `json:"track,omitempty"`
}

func (s *Server) handlePilot(w http.ResponseWriter, r *http.Request) {
	callsign := chi.URLParam(r, "callsign")
	p, ok := s.mgr.GetPilot(callsign)
	if !ok {
		writeError(w, http.StatusNotFound, "pilot not found")
		return
	}
	detail := pilotDetail{Pilot: p}
	if s.tracks != nil {
		points, err := s.tracks.GetTrackPoints(r.Context(), p.TrackCode())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		detail.Track = points
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	minLng, err1 := strconv.ParseFloat(chi.URLParam(r, "min_lng"), 64)
	minLat, err2 := strconv.ParseFloat(chi.URLParam(r, "min_lat"), 64)
	maxLng, err3 := strconv.ParseFloat(chi.URLParam(r, "max_lng"), 64)
	maxLat, err4 := strconv.ParseFloat(chi.URLParam(r, "max_lat"), 64)
	zoom, err5 := strconv.ParseFloat(chi.URLParam(r, "zoom"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		writeError(w, http.StatusBadRequest, "invalid viewport")
		return
	}

	var expr *filter.Expr
	if q := r.URL.Query().Get("query"); q != "" {
		expr, err1 = filter.ParseAndCompile(q)
		if err1 != nil {
			writeError(w, http.StatusBadRequest, err1.Error())
			return
		}
	}
	showWX := r.URL.Query().Get("show_wx") == "true"

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	rect := geo.Rect{SW: geo.Point{Lat: minLat, Lng: minLng}.Clamp(), NE: geo.Point{Lat: maxLat, Lng: maxLng}.Clamp()}
	sess := session.New(s.mgr, s.weather, rect, zoom < 3.0, showWX, expr)

	ctx := r.Context()
	enc := json.NewEncoder(w)
	emit := func(msg session.UpdateMessage) error {
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		if err := enc.Encode(msg); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	_ = sess.Run(ctx, emit)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
