package session

import (
	"context"
	"fmt"
	"testing"

	"vatlive/internal/filter"
	"vatlive/internal/fixed"
	"vatlive/internal/geo"
	"vatlive/internal/upstream"
)

type fakeSource struct {
	pilots   []*upstream.Pilot
	airports []*fixed.Airport
	firs     []*fixed.FIR
}

func (f *fakeSource) GetPilots(r geo.Rect, noBounds bool) []*upstream.Pilot     { return f.pilots }
func (f *fakeSource) GetAirports(r geo.Rect, noBounds bool) []*fixed.Airport { return f.airports }
func (f *fakeSource) GetFIRs(r geo.Rect, noBounds bool) []*fixed.FIR         { return f.firs }

func TestSessionFirstTickSendsFullSetNoDelete(t *testing.T) {
	src := &fakeSource{pilots: []*upstream.Pilot{{Callsign: "AAL1", CID: 1, Position: geo.Point{Lat: 40, Lng: -74}}}}
	s := New(src, nil, geo.Rect{}, true, false, nil)

	var msgs []UpdateMessage
	emit := func(m UpdateMessage) error { msgs = append(msgs, m); return nil }

	if err := s.tick(context.Background(), emit); err != nil {
		t.Fatalf("tick: %v", err)
	}

	var sawSet, sawDelete bool
	for _, m := range msgs {
		if m.ObjectType != ObjectPilot {
			continue
		}
		if m.Data.Set != nil {
			sawSet = true
		}
		if len(m.Data.Delete) > 0 {
			sawDelete = true
		}
	}
	if !sawSet {
		t.Fatal("expected a pilots-set message on first tick")
	}
	if sawDelete {
		t.Fatal("expected no pilots-delete message when nothing vanished")
	}
}

func TestSessionSecondTickDiffsAgainstPrevious(t *testing.T) {
	src := &fakeSource{pilots: []*upstream.Pilot{{Callsign: "AAL1", CID: 1, Position: geo.Point{Lat: 40, Lng: -74}}}}
	s := New(src, nil, geo.Rect{}, true, false, nil)
	emit := func(m UpdateMessage) error { return nil }
	if err := s.tick(context.Background(), emit); err != nil {
		t.Fatal(err)
	}

	src.pilots = nil // AAL1 vanished
	var msgs []UpdateMessage
	if err := s.tick(context.Background(), func(m UpdateMessage) error { msgs = append(msgs, m); return nil }); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, m := range msgs {
		if m.ObjectType == ObjectPilot && len(m.Data.Delete) == 1 && m.Data.Delete[0] == "AAL1" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a pilots-delete for AAL1 after it vanished")
	}
}

func TestSessionFilterExcludesNonMatchingPilot(t *testing.T) {
	src := &fakeSource{pilots: []*upstream.Pilot{
		{Callsign: "AAL1", Position: geo.Point{Lat: 1, Lng: 1}},
		{Callsign: "DAL2", Position: geo.Point{Lat: 1, Lng: 1}},
	}}
	expr, err := filter.ParseAndCompile(`callsign =~ "^AAL"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	s := New(src, nil, geo.Rect{}, true, false, expr)

	var sent []string
	emit := func(m UpdateMessage) error {
		if m.ObjectType == ObjectPilot {
			if set, ok := m.Data.Set.([]PilotView); ok {
				for _, v := range set {
					sent = append(sent, v.Callsign)
				}
			}
		}
		return nil
	}
	if err := s.tick(context.Background(), emit); err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 || sent[0] != "AAL1" {
		t.Fatalf("expected only AAL1 sent, got %v", sent)
	}
}

func TestSessionChunksLargeSets(t *testing.T) {
	var pilots []*upstream.Pilot
	for i := 0; i < 250; i++ {
		pilots = append(pilots, &upstream.Pilot{Callsign: fmt.Sprintf("P%03d", i), Position: geo.Point{Lat: 1, Lng: 1}})
	}
	src := &fakeSource{pilots: pilots}
	s := New(src, nil, geo.Rect{}, true, false, nil)

	var setMsgs int
	var lengths []int
	emit := func(m UpdateMessage) error {
		if m.ObjectType == ObjectPilot && m.Data.Set != nil {
			setMsgs++
			lengths = append(lengths, len(m.Data.Set.([]PilotView)))
		}
		return nil
	}
	if err := s.tick(context.Background(), emit); err != nil {
		t.Fatal(err)
	}
	if setMsgs != 3 {
		t.Fatalf("expected 3 chunked set messages, got %d", setMsgs)
	}
	if lengths[0] != 100 || lengths[1] != 100 || lengths[2] != 50 {
		t.Fatalf("unexpected chunk lengths: %v", lengths)
	}
}
