// internal/service/alert/handler.go

package alert

import (
	"log"

	"hershield/internal/domain/broker"
	"hershield/internal/protocol"
)

// Handler relays SOS alerts. It keeps no state: each alert exists only
// for the duration of its broadcast.
type Handler struct{}

// NewHandler creates the alert relay.
func NewHandler() *Handler {
	return &Handler{}
}

// HandleSOS fans an alert out to every connection except the
// originator. The outbound payload carries coordinates and the
// sender-minted rendezvous link but not the origin identity, so
// recipients can only correlate an alert with themselves by comparing
// coordinates against their own last-known location.
func (h *Handler) HandleSOS(s broker.Sender, identity string, ev protocol.Envelope) {
	lat, lon, ok := ev.Coords()
	if !ok {
		return
	}

	log.Printf("SOS triggered by %s at [%v, %v]", identity, lat, lon)
	s.BroadcastExcluding(identity, protocol.IncomingSOS(lat, lon, ev.RendezvousLink))
}
