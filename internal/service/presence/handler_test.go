package presence

import (
	"testing"

	domain "hershield/internal/domain/presence"
	"hershield/internal/protocol"
)

// fakeSender records every broadcast the handler issues.
type fakeSender struct {
	all       []protocol.Envelope
	excluding []struct {
		origin string
		env    protocol.Envelope
	}
	narrow []struct {
		identity string
		env      protocol.Envelope
	}
}

func (s *fakeSender) BroadcastAll(ev protocol.Envelope) {
	s.all = append(s.all, ev)
}

func (s *fakeSender) BroadcastExcluding(origin string, ev protocol.Envelope) {
	s.excluding = append(s.excluding, struct {
		origin string
		env    protocol.Envelope
	}{origin, ev})
}

func (s *fakeSender) Narrowcast(identity string, ev protocol.Envelope) {
	s.narrow = append(s.narrow, struct {
		identity string
		env      protocol.Envelope
	}{identity, ev})
}

func TestRegistryLastWriterWins(t *testing.T) {
	reg := NewRegistry()

	reg.Upsert("a", domain.Location{Latitude: 1, Longitude: 1})
	rec := reg.Upsert("a", domain.Location{Latitude: 2, Longitude: 2})

	if reg.Len() != 1 {
		t.Fatalf("registry holds %d records, want 1", reg.Len())
	}
	if rec.Location.Latitude != 2 || rec.Location.Longitude != 2 {
		t.Fatalf("got record at (%v, %v), want (2, 2)", rec.Location.Latitude, rec.Location.Longitude)
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry()
	reg.Upsert("a", domain.Location{Latitude: 1, Longitude: 1})

	if !reg.Remove("a") {
		t.Fatal("Remove of an existing record returned false")
	}
	if reg.Len() != 0 {
		t.Fatalf("registry holds %d records after remove, want 0", reg.Len())
	}
	// Double-fire is a no-op, not an error.
	if reg.Remove("a") {
		t.Fatal("Remove of an absent record returned true")
	}
	if reg.Remove("never-seen") {
		t.Fatal("Remove of an unknown identity returned true")
	}
}

func TestConnectCreatesNoRecord(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(reg)
	s := &fakeSender{}

	h.HandleConnect(s, "a")

	if reg.Len() != 0 {
		t.Fatalf("connect created %d records, want 0", reg.Len())
	}
	if len(s.all) != 0 {
		t.Fatalf("connect issued %d broadcasts, want 0", len(s.all))
	}
}

func TestLocationUpdateUpsertsAndBroadcasts(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(reg)
	s := &fakeSender{}

	h.HandleLocation(s, "a", protocol.SendLocation(10, 20))
	h.HandleLocation(s, "a", protocol.SendLocation(11, 21))

	if reg.Len() != 1 {
		t.Fatalf("registry holds %d records, want 1", reg.Len())
	}
	if len(s.all) != 2 {
		t.Fatalf("got %d broadcasts, want 2", len(s.all))
	}

	last := s.all[1]
	if last.Type != protocol.KindReceiveLocation {
		t.Fatalf("got broadcast kind %q, want %q", last.Type, protocol.KindReceiveLocation)
	}
	if last.ID != "a" {
		t.Fatalf("got broadcast identity %q, want a", last.ID)
	}
	lat, lon, ok := last.Coords()
	if !ok || lat != 11 || lon != 21 {
		t.Fatalf("got broadcast at (%v, %v), want (11, 21)", lat, lon)
	}
}

func TestLocationUpdateWithBadCoordsIsDropped(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(reg)
	s := &fakeSender{}

	h.HandleLocation(s, "a", protocol.Envelope{Type: protocol.KindSendLocation})

	if reg.Len() != 0 {
		t.Fatal("malformed update reached the registry")
	}
	if len(s.all) != 0 {
		t.Fatal("malformed update was broadcast")
	}
}

func TestDisconnectRemovesAndBroadcasts(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(reg)
	s := &fakeSender{}

	h.HandleLocation(s, "a", protocol.SendLocation(1, 1))
	h.HandleDisconnect(s, "a")

	if reg.Len() != 0 {
		t.Fatalf("registry holds %d records after disconnect, want 0", reg.Len())
	}

	last := s.all[len(s.all)-1]
	if last.Type != protocol.KindUserDisconnected || last.ID != "a" {
		t.Fatalf("got %q for %q, want user-disconnected for a", last.Type, last.ID)
	}
}

func TestDisconnectWithoutRecordStillBroadcasts(t *testing.T) {
	reg := NewRegistry()
	h := NewHandler(reg)
	s := &fakeSender{}

	// An identity that connected but never reported still announces
	// its departure, mirroring the unconditional disconnect broadcast.
	h.HandleDisconnect(s, "quiet")

	if len(s.all) != 1 || s.all[0].Type != protocol.KindUserDisconnected {
		t.Fatalf("got broadcasts %v, want a single user-disconnected", s.all)
	}
}
