// internal/client/reconciler.go

package client

import (
	"log"
	"sync"

	"hershield/internal/domain/presence"
	"hershield/internal/protocol"
)

// Marker is the client-local renderable representation of a peer's
// last-known location.
type Marker struct {
	Identity  string
	Latitude  float64
	Longitude float64
}

// Alert is a surfaced SOS: one that did not match the receiver's own
// last-known location.
type Alert struct {
	Latitude       float64
	Longitude      float64
	RendezvousLink string
}

// RouteDrawer is the external mapping capability: given two
// coordinates, draw a path between them.
type RouteDrawer interface {
	DrawRoute(from, to presence.Location) error
}

// AlertFunc surfaces an accepted SOS to the user.
type AlertFunc func(Alert)

// Reconciler applies the server's event stream to a local marker map so
// the client's view stays consistent with the session registry without
// ever receiving a full snapshot. Exactly one marker exists per
// identity that has reported a location and not yet disconnected.
type Reconciler struct {
	mu       sync.Mutex
	markers  map[string]Marker
	self     *presence.Location
	lastLink string
	surface  AlertFunc
	drawer   RouteDrawer
}

// NewReconciler creates a reconciler. surface and drawer may be nil.
func NewReconciler(surface AlertFunc, drawer RouteDrawer) *Reconciler {
	return &Reconciler{
		markers: make(map[string]Marker),
		surface: surface,
		drawer:  drawer,
	}
}

// SetSelf records the client's own last-reported location, used to
// suppress the echo of its own SOS.
func (r *Reconciler) SetSelf(lat, lon float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.self = &presence.Location{Latitude: lat, Longitude: lon}
}

// Apply reduces one inbound event into the marker map. Unknown kinds
// and frames without usable coordinates are ignored.
func (r *Reconciler) Apply(ev protocol.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case protocol.KindReceiveLocation:
		lat, lon, ok := ev.Coords()
		if !ok || ev.ID == "" {
			return
		}
		// Creates on first sight, moves afterwards. The receiver's own
		// echoed update lands here too and yields a marker for "self",
		// which the presentation layer may suppress.
		r.markers[ev.ID] = Marker{Identity: ev.ID, Latitude: lat, Longitude: lon}

	case protocol.KindUserDisconnected:
		// No-op when no marker exists for the identity.
		delete(r.markers, ev.ID)

	case protocol.KindIncomingSOS:
		lat, lon, ok := ev.Coords()
		if !ok {
			return
		}
		r.applySOS(lat, lon, ev.RendezvousLink)
	}
}

// applySOS decides whether an alert is the client's own echo. The
// comparison is exact float equality against the last-reported self
// location: an alert differing by any nonzero amount is surfaced, and
// an unrelated alert that happens to carry identical coordinates is
// wrongly suppressed. The payload carries no origin identity, so
// coordinates are the only correlation available.
func (r *Reconciler) applySOS(lat, lon float64, link string) {
	if r.self != nil && lat == r.self.Latitude && lon == r.self.Longitude {
		return
	}

	if link != "" {
		r.lastLink = link
	}
	if r.surface != nil {
		r.surface(Alert{Latitude: lat, Longitude: lon, RendezvousLink: link})
	}
	if r.drawer != nil && r.self != nil {
		to := presence.Location{Latitude: lat, Longitude: lon}
		if err := r.drawer.DrawRoute(*r.self, to); err != nil {
			log.Printf("failed to draw route to alert: %v", err)
		}
	}
}

// Marker returns the marker for identity, if one exists.
func (r *Reconciler) Marker(identity string) (Marker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[identity]
	return m, ok
}

// Markers returns a copy of the current marker set.
func (r *Reconciler) Markers() []Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Marker, 0, len(r.markers))
	for _, m := range r.markers {
		out = append(out, m)
	}
	return out
}

// LastRendezvousLink returns the link carried by the most recently
// surfaced alert, or "" if none arrived yet.
func (r *Reconciler) LastRendezvousLink() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLink
}
