package alert

import (
	"testing"

	"hershield/internal/protocol"
)

type fakeSender struct {
	origin string
	sent   []protocol.Envelope
}

func (s *fakeSender) BroadcastAll(ev protocol.Envelope) {
	panic("alert relay must not use broadcastAll")
}

func (s *fakeSender) BroadcastExcluding(origin string, ev protocol.Envelope) {
	s.origin = origin
	s.sent = append(s.sent, ev)
}

func (s *fakeSender) Narrowcast(identity string, ev protocol.Envelope) {
	panic("alert relay must not use narrowcast")
}

func TestSOSRelayExcludesOrigin(t *testing.T) {
	h := NewHandler()
	s := &fakeSender{}

	h.HandleSOS(s, "sender-1", protocol.SOSAlert(10, 20, "link-1"))

	if s.origin != "sender-1" {
		t.Fatalf("excluded %q, want sender-1", s.origin)
	}
	if len(s.sent) != 1 {
		t.Fatalf("got %d broadcasts, want 1", len(s.sent))
	}
}

func TestSOSRelayPayload(t *testing.T) {
	h := NewHandler()
	s := &fakeSender{}

	h.HandleSOS(s, "sender-1", protocol.SOSAlert(10, 20, "link-1"))

	out := s.sent[0]
	if out.Type != protocol.KindIncomingSOS {
		t.Fatalf("got kind %q, want %q", out.Type, protocol.KindIncomingSOS)
	}
	lat, lon, ok := out.Coords()
	if !ok || lat != 10 || lon != 20 {
		t.Fatalf("got coordinates (%v, %v), want (10, 20)", lat, lon)
	}
	if out.RendezvousLink != "link-1" {
		t.Fatalf("got link %q, want link-1", out.RendezvousLink)
	}
	// Recipients cannot address a reply to the sender: the outbound
	// payload carries no identity.
	if out.ID != "" {
		t.Fatalf("outbound alert carries identity %q, want none", out.ID)
	}
}

func TestSOSRelayWithoutLink(t *testing.T) {
	h := NewHandler()
	s := &fakeSender{}

	h.HandleSOS(s, "sender-1", protocol.SOSAlert(1, 2, ""))

	if len(s.sent) != 1 || s.sent[0].RendezvousLink != "" {
		t.Fatalf("got %v, want one broadcast without a link", s.sent)
	}
}

func TestSOSWithBadCoordsIsDropped(t *testing.T) {
	h := NewHandler()
	s := &fakeSender{}

	h.HandleSOS(s, "sender-1", protocol.Envelope{Type: protocol.KindSOSAlert})

	if len(s.sent) != 0 {
		t.Fatal("malformed SOS was relayed")
	}
}
