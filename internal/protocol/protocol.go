// internal/protocol/protocol.go

package protocol

import (
	"encoding/json"
	"fmt"
	"math"
)

// Event kinds carried on the wire. The vocabulary follows the mobile
// client's socket event names.
const (
	// client -> server
	KindSendLocation = "send-location"
	KindSOSAlert     = "sos-alert"

	// server -> client
	KindReceiveLocation  = "receive-location"
	KindUserDisconnected = "user-disconnected"
	KindIncomingSOS      = "incoming-sos"
)

// Envelope is the tagged frame exchanged over the event channel. Which
// fields are meaningful depends on Type. Coordinates are pointers so a
// frame that omits them can be told apart from one reporting (0, 0).
type Envelope struct {
	Type           string   `json:"type"`
	ID             string   `json:"id,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	RendezvousLink string   `json:"rendezvous_link,omitempty"`
}

// Coords returns the coordinate pair and whether both values are
// present and finite.
func (e Envelope) Coords() (lat, lon float64, ok bool) {
	if e.Latitude == nil || e.Longitude == nil {
		return 0, 0, false
	}
	lat, lon = *e.Latitude, *e.Longitude
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, 0, false
	}
	return lat, lon, true
}

// Float wraps a coordinate value for use in an Envelope literal.
func Float(v float64) *float64 {
	return &v
}

// SendLocation builds a client->server location report.
func SendLocation(lat, lon float64) Envelope {
	return Envelope{Type: KindSendLocation, Latitude: Float(lat), Longitude: Float(lon)}
}

// SOSAlert builds a client->server emergency alert. The rendezvous link
// is minted by the sender and relayed opaquely.
func SOSAlert(lat, lon float64, link string) Envelope {
	return Envelope{Type: KindSOSAlert, Latitude: Float(lat), Longitude: Float(lon), RendezvousLink: link}
}

// PeerLocation builds the server->client broadcast of a peer's update.
func PeerLocation(identity string, lat, lon float64) Envelope {
	return Envelope{Type: KindReceiveLocation, ID: identity, Latitude: Float(lat), Longitude: Float(lon)}
}

// PeerGone builds the server->client broadcast of a peer disconnect.
func PeerGone(identity string) Envelope {
	return Envelope{Type: KindUserDisconnected, ID: identity}
}

// IncomingSOS builds the server->client alert broadcast. The origin
// identity is deliberately absent from the payload; receivers correlate
// alerts by coordinates only.
func IncomingSOS(lat, lon float64, link string) Envelope {
	return Envelope{Type: KindIncomingSOS, Latitude: Float(lat), Longitude: Float(lon), RendezvousLink: link}
}

// Decode parses a raw frame into an Envelope without judging its kind.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return Envelope{}, fmt.Errorf("frame missing type")
	}
	return env, nil
}

// ValidateInbound checks a client->server frame before it reaches any
// handler. Frames with unknown kinds or absent/non-finite coordinates
// are rejected here so corrupt values never propagate into the registry
// or a broadcast.
func ValidateInbound(env Envelope) error {
	switch env.Type {
	case KindSendLocation, KindSOSAlert:
		if _, _, ok := env.Coords(); !ok {
			return fmt.Errorf("%s frame has missing or non-finite coordinates", env.Type)
		}
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", env.Type)
	}
}

// Encode serializes an Envelope for the wire.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", env.Type, err)
	}
	return data, nil
}
