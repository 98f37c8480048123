package protocol

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestDecodeSendLocation(t *testing.T) {
	env, err := Decode([]byte(`{"type":"send-location","latitude":48.85,"longitude":2.35}`))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if env.Type != KindSendLocation {
		t.Fatalf("got type %q, want %q", env.Type, KindSendLocation)
	}
	lat, lon, ok := env.Coords()
	if !ok {
		t.Fatal("Coords reported missing coordinates")
	}
	if lat != 48.85 || lon != 2.35 {
		t.Fatalf("got (%v, %v), want (48.85, 2.35)", lat, lon)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"type":`},
		{"missing type", `{"latitude":1,"longitude":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Fatal("Decode accepted a malformed frame")
			}
		})
	}
}

func TestValidateInbound(t *testing.T) {
	tests := []struct {
		name    string
		env     Envelope
		wantErr bool
	}{
		{"location update", SendLocation(10, 20), false},
		{"sos with link", SOSAlert(10, 20, "link-1"), false},
		{"sos without link", SOSAlert(10, 20, ""), false},
		{"zero coordinates are valid", SendLocation(0, 0), false},
		{"missing latitude", Envelope{Type: KindSendLocation, Longitude: Float(2)}, true},
		{"missing longitude", Envelope{Type: KindSendLocation, Latitude: Float(1)}, true},
		{"missing both", Envelope{Type: KindSOSAlert}, true},
		{"NaN latitude", Envelope{Type: KindSendLocation, Latitude: Float(math.NaN()), Longitude: Float(2)}, true},
		{"infinite longitude", Envelope{Type: KindSendLocation, Latitude: Float(1), Longitude: Float(math.Inf(1))}, true},
		{"server kind from client", PeerGone("x"), true},
		{"unknown kind", Envelope{Type: "mystery", Latitude: Float(1), Longitude: Float(2)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInbound(tt.env)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateInbound returned %v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestIncomingSOSOmitsOrigin(t *testing.T) {
	frame, err := Encode(IncomingSOS(10, 20, "link-1"))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(frame, &raw); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if _, present := raw["id"]; present {
		t.Fatal("incoming-sos frame must not carry an identity")
	}
	if raw["rendezvous_link"] != "link-1" {
		t.Fatalf("got rendezvous_link %v, want link-1", raw["rendezvous_link"])
	}
}

func TestEncodeOmitsEmptyLink(t *testing.T) {
	frame, err := Encode(IncomingSOS(1, 2, ""))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if strings.Contains(string(frame), "rendezvous_link") {
		t.Fatalf("empty rendezvous link should be omitted, got %s", frame)
	}
}

func TestPeerGoneCarriesOnlyIdentity(t *testing.T) {
	frame, err := Encode(PeerGone("abc"))
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(frame, &raw); err != nil {
		t.Fatalf("frame is not valid JSON: %v", err)
	}
	if raw["id"] != "abc" {
		t.Fatalf("got id %v, want abc", raw["id"])
	}
	if _, present := raw["latitude"]; present {
		t.Fatal("user-disconnected frame must not carry coordinates")
	}
}
