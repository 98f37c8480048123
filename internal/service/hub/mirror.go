// internal/service/hub/mirror.go

package hub

import (
	"log"

	"github.com/nats-io/nats.go"

	"hershield/internal/protocol"
)

// Mirror republishes every outbound broadcast onto NATS subjects so
// out-of-process consumers (dashboards, future peer nodes) can observe
// the presence stream without holding a WebSocket connection. A nil
// *Mirror or nil connection disables mirroring.
type Mirror struct {
	nc    *nats.Conn
	topic string
}

// NewMirror creates a mirror publishing under the given topic prefix.
func NewMirror(nc *nats.Conn, topic string) *Mirror {
	return &Mirror{nc: nc, topic: topic}
}

// Publish forwards an already-encoded frame. Publish failures are
// logged and otherwise ignored; mirroring is best-effort and must never
// affect delivery to connected clients.
func (m *Mirror) Publish(kind string, frame []byte) {
	if m == nil || m.nc == nil {
		return
	}
	if err := m.nc.Publish(m.subject(kind), frame); err != nil {
		log.Printf("failed to mirror %s event to NATS: %v", kind, err)
	}
}

func (m *Mirror) subject(kind string) string {
	switch kind {
	case protocol.KindReceiveLocation:
		return m.topic + ".location"
	case protocol.KindUserDisconnected:
		return m.topic + ".disconnect"
	case protocol.KindIncomingSOS:
		return m.topic + ".sos"
	default:
		return m.topic + ".events"
	}
}
