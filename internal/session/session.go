package session

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"vatlive/internal/filter"
	"vatlive/internal/fixed"
	"vatlive/internal/geo"
	"vatlive/internal/upstream"
)

// TickInterval is the fixed per-client tick cadence (spec §4.H). It is a
// var rather than a const solely so tests can shrink it.
var TickInterval = 5 * time.Second

// ObjectType names the kind of object an UpdateMessage carries.
type ObjectType string

const (
	ObjectPilot    ObjectType = "pilot"
	ObjectAirport  ObjectType = "airport"
	ObjectFIR      ObjectType = "fir"
)

// UpdateMessage is the event envelope emitted to a client, per spec §4.H.
type UpdateMessage struct {
	ConnectionID string      `json:"connection_id"`
	MessageType  string      `json:"message_type"`
	ObjectType   ObjectType  `json:"object_type"`
	Data         MessageData `json:"data"`
}

// MessageData carries only the list relevant to the message's ObjectType.
type MessageData struct {
	Set    any      `json:"set,omitempty"`
	Delete []string `json:"delete,omitempty"`
}

// stateSource is the subset of *manager.Manager a session depends on —
// declared here so session never imports manager's concrete type and
// tests can supply a fake.
type stateSource interface {
	GetPilots(r geo.Rect, noBounds bool) []*upstream.Pilot
	GetAirports(r geo.Rect, noBounds bool) []*fixed.Airport
	GetFIRs(r geo.Rect, noBounds bool) []*fixed.FIR
}

// weatherPreloader is the narrow weather.Cache dependency a session uses.
type weatherPreloader interface {
	Preload(ctx context.Context, ids []string)
}

// Session is one connected client's streaming state.
type Session struct {
	ID       string
	Manager  stateSource
	Weather  weatherPreloader
	Rect     geo.Rect
	NoBounds bool
	ShowWX   bool
	Filter   *filter.Expr

	pilotsState   map[string]PilotView
	airportsState map[string]AirportView
	firsState     map[string]FIRView
}

// New builds a session with a fresh random client id.
func New(mgr stateSource, wx weatherPreloader, rect geo.Rect, noBounds, showWX bool, expr *filter.Expr) *Session {
	return &Session{
		ID:            clientID(),
		Manager:       mgr,
		Weather:       wx,
		Rect:          rect,
		NoBounds:      noBounds,
		ShowWX:        showWX,
		Filter:        expr,
		pilotsState:   make(map[string]PilotView),
		airportsState: make(map[string]AirportView),
		firsState:     make(map[string]FIRView),
	}
}

// clientID derives an 18-character token from a fresh UUID's hex digits.
func clientID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:18]
}

// Run drives the session's fixed 5-second tick until ctx is cancelled or
// emit returns an error (treated as the client having disconnected).
func (s *Session) Run(ctx context.Context, emit func(UpdateMessage) error) error {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.tick(ctx, emit); err != nil {
				s.logf("client disconnected: %v", err)
				return err
			}
		}
	}
}

func (s *Session) tick(ctx context.Context, emit func(UpdateMessage) error) error {
	if err := s.tickPilots(emit); err != nil {
		return err
	}
	setAirports, err := s.tickAirports(emit)
	if err != nil {
		return err
	}
	if err := s.tickFIRs(emit); err != nil {
		return err
	}
	if s.ShowWX && s.Weather != nil && len(setAirports) > 0 {
		ids := make([]string, len(setAirports))
		for i, a := range setAirports {
			ids[i] = a.ICAO
		}
		s.Weather.Preload(ctx, ids)
	}
	return nil
}

func (s *Session) tickPilots(emit func(UpdateMessage) error) error {
	candidates := s.Manager.GetPilots(s.Rect, s.NoBounds)
	views := make([]PilotView, 0, len(candidates))
	for _, p := range candidates {
		v := newPilotView(p)
		if s.Filter != nil && !s.Filter.Eval(v.fields()) {
			continue
		}
		views = append(views, v)
	}

	set, deleted, next := pilotsDiff(s.pilotsState, views)
	s.pilotsState = next

	for _, chunk := range chunkPilots(set) {
		if err := emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectPilot, Data: MessageData{Set: chunk}}); err != nil {
			return err
		}
	}
	if len(deleted) == 0 {
		return nil
	}
	return emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectPilot, Data: MessageData{Delete: deleted}})
}

func (s *Session) tickAirports(emit func(UpdateMessage) error) ([]AirportView, error) {
	candidates := s.Manager.GetAirports(s.Rect, s.NoBounds)
	views := make([]AirportView, 0, len(candidates))
	for _, a := range candidates {
		views = append(views, newAirportView(a))
	}

	set, deleted, next := airportsDiff(s.airportsState, views)
	s.airportsState = next

	if len(set) > 0 {
		if err := emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectAirport, Data: MessageData{Set: set}}); err != nil {
			return nil, err
		}
	}
	if len(deleted) > 0 {
		if err := emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectAirport, Data: MessageData{Delete: deleted}}); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (s *Session) tickFIRs(emit func(UpdateMessage) error) error {
	candidates := s.Manager.GetFIRs(s.Rect, s.NoBounds)
	views := make([]FIRView, 0, len(candidates))
	for _, f := range candidates {
		views = append(views, newFIRView(f))
	}

	set, deleted, next := firsDiff(s.firsState, views)
	s.firsState = next

	if len(set) > 0 {
		if err := emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectFIR, Data: MessageData{Set: set}}); err != nil {
			return err
		}
	}
	if len(deleted) == 0 {
		return nil
	}
	return emit(UpdateMessage{ConnectionID: s.ID, MessageType: "update", ObjectType: ObjectFIR, Data: MessageData{Delete: deleted}})
}

func (s *Session) logf(format string, args ...any) {
	log.Printf("session %s: "+format, append([]any{s.ID}, args...)...)
}
