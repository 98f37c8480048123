// internal/service/presence/handler.go

package presence

import (
	"log"

	"hershield/internal/domain/broker"
	domain "hershield/internal/domain/presence"
	"hershield/internal/protocol"
)

// Handler is the presence protocol state machine bound to each
// connection: Connected (no record yet) -> Reporting (record exists) ->
// Gone. Connect alone yields no registry record; the first location
// update creates it, every later one replaces it, and disconnect
// destroys it. There is no timeout eviction: an identity that stops
// updating without disconnecting stays Reporting until its connection
// drops.
type Handler struct {
	registry domain.Registry
}

// NewHandler creates a presence handler writing through to registry.
func NewHandler(registry domain.Registry) *Handler {
	return &Handler{registry: registry}
}

// HandleConnect fires when a connection is assigned its identity. The
// registry is untouched; peers learn about this identity only once it
// reports a location.
func (h *Handler) HandleConnect(s broker.Sender, identity string) {
	log.Printf("client connected: %s", identity)
}

// HandleLocation applies one location update: registry upsert, then a
// broadcast to every connection. The originator receives its own update
// back; receivers treat that echo as an idempotent marker update.
func (h *Handler) HandleLocation(s broker.Sender, identity string, ev protocol.Envelope) {
	lat, lon, ok := ev.Coords()
	if !ok {
		// Frames are validated before dispatch; a handler invoked
		// directly with bad coordinates still must not corrupt state.
		return
	}

	h.registry.Upsert(identity, domain.Location{Latitude: lat, Longitude: lon})
	s.BroadcastAll(protocol.PeerLocation(identity, lat, lon))
}

// HandleDisconnect drives the Gone transition: the record is removed
// and every remaining connection is told the identity is gone. No
// further events are ever associated with the identity afterwards.
func (h *Handler) HandleDisconnect(s broker.Sender, identity string) {
	h.registry.Remove(identity)
	s.BroadcastAll(protocol.PeerGone(identity))
	log.Printf("client disconnected: %s", identity)
}
