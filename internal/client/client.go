// internal/client/client.go

package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"hershield/internal/protocol"
)

// Client is one tracked participant: it reports its own location over
// the event channel and feeds the server's stream into a Reconciler.
type Client struct {
	sock       *websocket.Conn
	reconciler *Reconciler
	minter     LinkMinter

	writeMu sync.Mutex
}

// Dial connects to the server's WebSocket endpoint.
func Dial(ctx context.Context, url string, reconciler *Reconciler) (*Client, error) {
	sock, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{sock: sock, reconciler: reconciler}, nil
}

// SetLinkTemplate overrides the rendezvous URL template.
func (c *Client) SetLinkTemplate(template string) {
	c.minter.Template = template
}

// Reconciler returns the reconciler this client feeds.
func (c *Client) Reconciler() *Reconciler {
	return c.reconciler
}

// Run reads the event stream until the connection closes or ctx is
// cancelled, applying each frame to the reconciler. A clean close
// returns nil.
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.sock.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := c.sock.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event stream: %w", err)
		}

		env, err := protocol.Decode(data)
		if err != nil {
			// One bad frame must not kill reconciliation.
			continue
		}
		c.reconciler.Apply(env)
	}
}

// SendLocation reports the client's current position. The position is
// also recorded locally as the self location used for SOS suppression.
func (c *Client) SendLocation(lat, lon float64) error {
	c.reconciler.SetSelf(lat, lon)
	return c.write(protocol.SendLocation(lat, lon))
}

// SendSOS emits an emergency alert carrying a freshly minted rendezvous
// link, returned so the sender can join it.
func (c *Client) SendSOS(lat, lon float64) (string, error) {
	link := c.minter.Mint()
	if err := c.write(protocol.SOSAlert(lat, lon, link)); err != nil {
		return "", err
	}
	return link, nil
}

// SendRaw writes an arbitrary frame, bypassing local encoding. The
// server validates frames on receipt; this exists for tooling that
// needs to exercise that path.
func (c *Client) SendRaw(frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.sock.WriteMessage(websocket.TextMessage, frame)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.sock.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.sock.Close()
}

func (c *Client) write(env protocol.Envelope) error {
	frame, err := protocol.Encode(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", env.Type, err)
	}
	return nil
}
