// internal/service/hub/hub.go

package hub

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hershield/internal/domain/broker"
	"hershield/internal/protocol"
)

// Config contains configuration for hub connections.
type Config struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64

	// Outbound frames buffered per connection before drops begin
	SendBuffer int
}

// DefaultConfig returns the default hub configuration.
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// conn is one attached connection as the dispatcher sees it.
type conn interface {
	// enqueue hands a frame to the connection's writer without
	// blocking; false means the frame was dropped for this recipient.
	enqueue(frame []byte) bool
	close()
}

// Hub is the event broker. It owns the live connection set, assigns
// connection identities, and routes inbound events to registered
// handlers. All connection and handler activity is serialized behind a
// single mutex, so handlers never interleave and the registry they
// mutate needs no locking of its own. Per-recipient delivery order
// follows dispatch order because each connection drains its buffered
// send channel with a single writer.
type Hub struct {
	cfg     Config
	mirror  *Mirror
	metrics *Metrics

	mu          sync.Mutex
	conns       map[string]conn
	handlers    map[string]broker.EventFunc
	connects    []broker.LifecycleFunc
	disconnects []broker.LifecycleFunc
}

// New creates a hub. mirror and metrics may be nil.
func New(cfg Config, mirror *Mirror, metrics *Metrics) *Hub {
	return &Hub{
		cfg:      cfg,
		mirror:   mirror,
		metrics:  metrics,
		conns:    make(map[string]conn),
		handlers: make(map[string]broker.EventFunc),
	}
}

// HandleKind registers the handler invoked for inbound events of kind.
func (h *Hub) HandleKind(kind string, fn broker.EventFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[kind] = fn
}

// OnConnect registers a hook fired exactly once per connection, before
// any event from that identity.
func (h *Hub) OnConnect(fn broker.LifecycleFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connects = append(h.connects, fn)
}

// OnDisconnect registers a hook fired exactly once per connection,
// after which the identity appears in no further broadcast.
func (h *Hub) OnDisconnect(fn broker.LifecycleFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects = append(h.disconnects, fn)
}

// ServeConn assigns a fresh identity to an upgraded WebSocket
// connection, attaches it, and starts its read/write pumps. The
// identity is valid only for the lifetime of this connection; a
// reconnecting client starts over with a new one.
func (h *Hub) ServeConn(sock *websocket.Conn) string {
	identity := uuid.New().String()
	c := newWSConn(h, identity, sock)

	// Attach before the pumps start so the connect hooks run before
	// any event from this identity can be dispatched.
	h.attach(identity, c)

	go c.writePump()
	go c.readPump()
	return identity
}

// ConnCount returns the number of currently attached connections.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close detaches every connection. Used during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for identity := range h.conns {
		h.detachLocked(identity)
	}
}

func (h *Hub) attach(identity string, c conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[identity] = c
	if h.metrics != nil {
		h.metrics.Connected.Inc()
	}

	s := sender{h: h}
	for _, fn := range h.connects {
		h.invokeLifecycle(fn, s, identity)
	}
}

// detach removes a connection. Safe to call from both pump exit paths;
// the second call finds nothing and is a no-op.
func (h *Hub) detach(identity string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(identity)
}

func (h *Hub) detachLocked(identity string) {
	c, ok := h.conns[identity]
	if !ok {
		return
	}
	delete(h.conns, identity)
	c.close()
	if h.metrics != nil {
		h.metrics.Connected.Dec()
	}

	s := sender{h: h}
	for _, fn := range h.disconnects {
		h.invokeLifecycle(fn, s, identity)
	}
}

// inbound decodes and dispatches one frame read from identity's
// connection. Malformed frames are dropped here and never reach a
// handler.
func (h *Hub) inbound(identity string, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Printf("dropping frame from %s: %v", identity, err)
		h.countRejected()
		return
	}
	if err := protocol.ValidateInbound(env); err != nil {
		log.Printf("dropping frame from %s: %v", identity, err)
		h.countRejected()
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, attached := h.conns[identity]; !attached {
		// Connection already went through disconnect; late frames
		// from its reader are discarded.
		return
	}

	handler, ok := h.handlers[env.Type]
	if !ok {
		log.Printf("no handler for event kind %q", env.Type)
		return
	}
	if h.metrics != nil {
		h.metrics.Events.WithLabelValues(env.Type).Inc()
	}
	h.invokeEvent(handler, sender{h: h}, identity, env)
}

// invokeEvent isolates a handler call so one bad payload cannot take
// down dispatch for other connections.
func (h *Hub) invokeEvent(fn broker.EventFunc, s broker.Sender, identity string, env protocol.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic on %s event from %s: %v", env.Type, identity, r)
		}
	}()
	fn(s, identity, env)
}

func (h *Hub) invokeLifecycle(fn broker.LifecycleFunc, s broker.Sender, identity string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lifecycle handler panic for %s: %v", identity, r)
		}
	}()
	fn(s, identity)
}

func (h *Hub) countRejected() {
	if h.metrics != nil {
		h.metrics.Rejected.Inc()
	}
}

// sender implements broker.Sender. It is only ever used while the hub
// mutex is held (handlers run under it), so it reads the connection set
// directly.
type sender struct {
	h *Hub
}

func (s sender) BroadcastAll(ev protocol.Envelope) {
	s.deliver("all", ev, func(string) bool { return true })
}

func (s sender) BroadcastExcluding(origin string, ev protocol.Envelope) {
	s.deliver("excluding", ev, func(identity string) bool { return identity != origin })
}

func (s sender) Narrowcast(identity string, ev protocol.Envelope) {
	s.deliver("narrowcast", ev, func(id string) bool { return id == identity })
}

func (s sender) deliver(mode string, ev protocol.Envelope, want func(string) bool) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		log.Printf("failed to encode %s broadcast: %v", ev.Type, err)
		return
	}

	for identity, c := range s.h.conns {
		if !want(identity) {
			continue
		}
		if !c.enqueue(frame) {
			log.Printf("send buffer full, dropping %s frame for %s", ev.Type, identity)
			if s.h.metrics != nil {
				s.h.metrics.Dropped.Inc()
			}
		}
	}

	if s.h.metrics != nil {
		s.h.metrics.Broadcasts.WithLabelValues(mode, ev.Type).Inc()
	}
	s.h.mirror.Publish(ev.Type, frame)
}
