// internal/domain/broker/broker.go

package broker

import "hershield/internal/protocol"

// Sender is the addressing surface handlers use to emit outbound
// events. It exposes the three addressing modes of the event broker;
// transport details stay behind it.
type Sender interface {
	// BroadcastAll delivers to every currently connected identity,
	// including the originator if it is one of them.
	BroadcastAll(ev protocol.Envelope)

	// BroadcastExcluding delivers to every currently connected
	// identity except origin.
	BroadcastExcluding(origin string, ev protocol.Envelope)

	// Narrowcast delivers only to identity; a no-op if it is not
	// connected. No current protocol kind uses it, but the addressing
	// surface keeps it available for future kinds.
	Narrowcast(identity string, ev protocol.Envelope)
}

// EventFunc handles one inbound event from identity. Handlers run on
// the broker's dispatch serialization point and must not block.
type EventFunc func(s Sender, identity string, ev protocol.Envelope)

// LifecycleFunc observes a connection arriving or going away.
type LifecycleFunc func(s Sender, identity string)
