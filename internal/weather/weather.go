// Package weather implements the per-airport METAR cache: TTL'd entries,
// coalesced batch preload, and exponential blackout doubling on empty
// responses, grounded directly on the original WeatherManager.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Info is one cached METAR observation.
type Info struct {
	ICAO        string
	Temperature float64
	DewPoint    float64
	WindSpeed   int
	WindGust    int
	WindDir     string
	RawMETAR    string
	ReceivedAt  time.Time
}

type cacheEntry struct {
	info      Info
	cachedAt  time.Time
}

type blacklistEntry struct {
	setAt    time.Time
	duration time.Duration
}

func (b blacklistEntry) expired(now time.Time) bool {
	return now.After(b.setAt.Add(b.duration))
}

func (b blacklistEntry) double(now time.Time) blacklistEntry {
	return blacklistEntry{setAt: now, duration: b.duration * 2}
}

const initialBlackoutDuration = time.Hour

// Cache is the per-ICAO weather cache. Zero value is not usable; use New.
type Cache struct {
	ttl       time.Duration
	client    *http.Client
	baseURL   string
	requests  atomic.Uint64

	mu        sync.Mutex
	cache     map[string]cacheEntry
	blacklist map[string]blacklistEntry
}

// New creates a Cache with the given per-key TTL. baseURL defaults to the
// aviationweather.gov metar.php endpoint when empty.
func New(ttl time.Duration, baseURL string) *Cache {
	if baseURL == "" {
		baseURL = "https://aviationweather.gov/cgi-bin/data/metar.php"
	}
	return &Cache{
		ttl:       ttl,
		client:    &http.Client{Timeout: 10 * time.Second},
		baseURL:   baseURL,
		cache:     make(map[string]cacheEntry),
		blacklist: make(map[string]blacklistEntry),
	}
}

// RequestCount returns the number of outbound API requests issued so far.
func (c *Cache) RequestCount() uint64 {
	return c.requests.Load()
}

func (c *Cache) isFresh(e cacheEntry, now time.Time) bool {
	return now.Sub(e.cachedAt) < c.ttl
}

// Preload filters ids down to those neither blacklisted nor freshly
// cached, then issues one batched GET for the remainder. A small
// duplicate-fetch window across concurrent preloads is accepted — no
// lock is held across the HTTP call.
func (c *Cache) Preload(ctx context.Context, ids []string) {
	now := time.Now()
	c.mu.Lock()
	var need []string
	for _, id := range ids {
		if bl, ok := c.blacklist[id]; ok && !bl.expired(now) {
			continue
		}
		if e, ok := c.cache[id]; ok && c.isFresh(e, now) {
			continue
		}
		need = append(need, id)
	}
	c.mu.Unlock()

	if len(need) == 0 {
		return
	}

	results, err := c.fetchBatch(ctx, need)
	if err != nil {
		// Weather fetch failures are logged and never abort a tick.
		log.Printf("weather: preload %v: %v", need, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(results) == 0 {
		for _, id := range need {
			c.blacklistLocked(id, now)
		}
		return
	}
	for _, info := range results {
		c.cache[info.ICAO] = cacheEntry{info: info, cachedAt: now}
		delete(c.blacklist, info.ICAO)
	}
}

// Get returns a cached, non-stale entry if present; otherwise it issues a
// single-item remote fetch, blacklisting on an empty response.
func (c *Cache) Get(ctx context.Context, id string) (Info, bool) {
	now := time.Now()
	c.mu.Lock()
	if e, ok := c.cache[id]; ok && c.isFresh(e, now) {
		c.mu.Unlock()
		return e.info, true
	}
	if bl, ok := c.blacklist[id]; ok && !bl.expired(now) {
		c.mu.Unlock()
		return Info{}, false
	}
	c.mu.Unlock()

	results, err := c.fetchBatch(ctx, []string{id})
	if err != nil {
		return Info{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(results) == 0 {
		c.blacklistLocked(id, now)
		return Info{}, false
	}
	info := results[0]
	c.cache[info.ICAO] = cacheEntry{info: info, cachedAt: now}
	delete(c.blacklist, info.ICAO)
	return info, true
}

// blacklistLocked sets a new (1 hour) or doubled blacklist entry; caller
// must hold c.mu.
func (c *Cache) blacklistLocked(id string, now time.Time) {
	existing, ok := c.blacklist[id]
	if !ok {
		c.blacklist[id] = blacklistEntry{setAt: now, duration: initialBlackoutDuration}
		return
	}
	c.blacklist[id] = existing.double(now)
}

type wireMETAR struct {
	ICAOID      string      `json:"icaoId"`
	ReceiptTime string      `json:"receiptTime"`
	Temp        float64     `json:"temp"`
	Dewp        float64     `json:"dewp"`
	WDir        interface{} `json:"wdir"`
	WSpd        int         `json:"wspd"`
	WGst        int         `json:"wgst"`
	RawOb       string      `json:"rawOb"`
}

const receiptTimeLayout = "2006-01-02 15:04:05"

func (c *Cache) fetchBatch(ctx context.Context, ids []string) ([]Info, error) {
	c.requests.Add(1)
	u := fmt.Sprintf("%s?ids=%s&format=json", c.baseURL, url.QueryEscape(strings.Join(ids, ",")))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: unexpected status %d", resp.StatusCode)
	}

	var wire []wireMETAR
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("weather: decode: %w", err)
	}

	out := make([]Info, 0, len(wire))
	for _, m := range wire {
		receivedAt, _ := time.Parse(receiptTimeLayout, m.ReceiptTime)
		out = append(out, Info{
			ICAO:        m.ICAOID,
			Temperature: m.Temp,
			DewPoint:    m.Dewp,
			WindSpeed:   m.WSpd,
			WindGust:    m.WGst,
			WindDir:     windDirString(m.WDir),
			RawMETAR:    m.RawOb,
			ReceivedAt:  receivedAt,
		})
	}
	return out, nil
}

func windDirString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%d", int(t))
	default:
		return ""
	}
}
