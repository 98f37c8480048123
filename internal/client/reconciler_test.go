package client

import (
	"errors"
	"math"
	"testing"

	"hershield/internal/domain/presence"
	"hershield/internal/protocol"
)

type recordingDrawer struct {
	routes []presence.Location
	fail   bool
}

func (d *recordingDrawer) DrawRoute(from, to presence.Location) error {
	if d.fail {
		return errors.New("routing unavailable")
	}
	d.routes = append(d.routes, to)
	return nil
}

func TestMarkerLifecycle(t *testing.T) {
	r := NewReconciler(nil, nil)

	r.Apply(protocol.PeerLocation("A", 1, 1))
	r.Apply(protocol.PeerLocation("A", 2, 2))

	markers := r.Markers()
	if len(markers) != 1 {
		t.Fatalf("got %d markers, want exactly 1 for A", len(markers))
	}
	if markers[0].Latitude != 2 || markers[0].Longitude != 2 {
		t.Fatalf("marker at (%v, %v), want (2, 2)", markers[0].Latitude, markers[0].Longitude)
	}

	r.Apply(protocol.PeerGone("A"))
	if _, ok := r.Marker("A"); ok {
		t.Fatal("marker for A survived its disconnect")
	}
}

func TestDisconnectWithoutMarkerIsNoop(t *testing.T) {
	r := NewReconciler(nil, nil)

	r.Apply(protocol.PeerGone("A"))

	if len(r.Markers()) != 0 {
		t.Fatalf("got %d markers, want 0", len(r.Markers()))
	}
}

func TestOwnEchoIsIdempotentMarkerUpdate(t *testing.T) {
	r := NewReconciler(nil, nil)
	r.SetSelf(5, 6)

	// The server echoes the client's own update back; it lands as a
	// regular marker for "self" rather than an error.
	r.Apply(protocol.PeerLocation("me", 5, 6))
	r.Apply(protocol.PeerLocation("me", 5, 6))

	if len(r.Markers()) != 1 {
		t.Fatalf("own echo produced %d markers, want 1", len(r.Markers()))
	}
}

func TestSOSSelfSuppression(t *testing.T) {
	var surfaced []Alert
	r := NewReconciler(func(a Alert) { surfaced = append(surfaced, a) }, nil)
	r.SetSelf(10, 20)

	// Exactly equal to self: suppressed as "this alert is mine".
	r.Apply(protocol.IncomingSOS(10, 20, "mine"))
	if len(surfaced) != 0 {
		t.Fatalf("alert matching self location was surfaced: %v", surfaced)
	}
	if r.LastRendezvousLink() != "" {
		t.Fatal("suppressed alert retained its link")
	}

	// Any nonzero difference is surfaced.
	r.Apply(protocol.IncomingSOS(10, 21, "link-1"))
	if len(surfaced) != 1 {
		t.Fatalf("got %d surfaced alerts, want 1", len(surfaced))
	}
	if r.LastRendezvousLink() != "link-1" {
		t.Fatalf("got retained link %q, want link-1", r.LastRendezvousLink())
	}
}

func TestSOSAdjacentFloatIsSurfaced(t *testing.T) {
	var surfaced []Alert
	r := NewReconciler(func(a Alert) { surfaced = append(surfaced, a) }, nil)
	r.SetSelf(10, 20)

	// The comparison has no tolerance band: GPS jitter of one ulp
	// between send and a concurrent self-update defeats suppression.
	jittered := math.Nextafter(10, 11)
	r.Apply(protocol.IncomingSOS(jittered, 20, "link-2"))

	if len(surfaced) != 1 {
		t.Fatalf("float-adjacent alert was suppressed, want surfaced")
	}
}

func TestSOSWithoutSelfLocationIsSurfaced(t *testing.T) {
	var surfaced []Alert
	r := NewReconciler(func(a Alert) { surfaced = append(surfaced, a) }, nil)

	r.Apply(protocol.IncomingSOS(1, 2, ""))

	if len(surfaced) != 1 {
		t.Fatal("alert before any self report should be surfaced")
	}
}

func TestSOSDrawsRouteFromSelf(t *testing.T) {
	drawer := &recordingDrawer{}
	r := NewReconciler(nil, drawer)
	r.SetSelf(0, 0)

	r.Apply(protocol.IncomingSOS(3, 4, ""))

	if len(drawer.routes) != 1 {
		t.Fatalf("got %d routes drawn, want 1", len(drawer.routes))
	}
	if drawer.routes[0].Latitude != 3 || drawer.routes[0].Longitude != 4 {
		t.Fatalf("route drawn to (%v, %v), want (3, 4)", drawer.routes[0].Latitude, drawer.routes[0].Longitude)
	}
}

func TestRouteDrawerFailureDoesNotLoseAlert(t *testing.T) {
	var surfaced []Alert
	drawer := &recordingDrawer{fail: true}
	r := NewReconciler(func(a Alert) { surfaced = append(surfaced, a) }, drawer)
	r.SetSelf(0, 0)

	r.Apply(protocol.IncomingSOS(3, 4, "link-3"))

	if len(surfaced) != 1 {
		t.Fatal("alert was lost when route drawing failed")
	}
	if r.LastRendezvousLink() != "link-3" {
		t.Fatal("link was lost when route drawing failed")
	}
}

func TestApplyIgnoresCorruptFrames(t *testing.T) {
	r := NewReconciler(nil, nil)

	r.Apply(protocol.Envelope{Type: protocol.KindReceiveLocation, ID: "A"})
	r.Apply(protocol.Envelope{Type: protocol.KindReceiveLocation, Latitude: protocol.Float(1), Longitude: protocol.Float(2)})
	r.Apply(protocol.Envelope{Type: protocol.KindIncomingSOS})
	r.Apply(protocol.Envelope{Type: "unknown"})

	if len(r.Markers()) != 0 {
		t.Fatalf("corrupt frames produced %d markers, want 0", len(r.Markers()))
	}
}

func TestLinkMinterUniqueness(t *testing.T) {
	m := LinkMinter{}

	a, b := m.Mint(), m.Mint()
	if a == b {
		t.Fatal("two mints produced the same link")
	}

	custom := LinkMinter{Template: "https://example.com/room/%s"}
	link := custom.Mint()
	if len(link) <= len("https://example.com/room/") {
		t.Fatalf("custom template produced %q", link)
	}
}
