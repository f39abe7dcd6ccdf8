// Package hudclient implements the client role (§4.7): connect to a
// server's TCP endpoint, receive framed messages, dispatch them by
// channel, and feed deltas into a local Model.
package hudclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cascadelabs/hudsync/internal/applog"
	"github.com/cascadelabs/hudsync/pkg/model"
	"github.com/cascadelabs/hudsync/pkg/tcpcodec"
	"github.com/cascadelabs/hudsync/pkg/transport"
)

var log = applog.Named("hudclient")

// State is one of the client's lifecycle stages.
type State int

const (
	Disconnected State = iota
	Connecting
	Handshake
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Handshake:
		return "handshake"
	case Streaming:
		return "streaming"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client drives one TCP connection to a hudsync server and mirrors its
// Model into a local one.
type Client struct {
	model *model.Model

	mu        sync.Mutex
	state     State
	handshake map[string]interface{}

	conn net.Conn
	tc   *transport.Conn
}

// New returns a Client that applies received deltas and snapshots to m.
func New(m *model.Model) *Client {
	return &Client{model: m, state: Disconnected}
}

// State reports the client's current lifecycle stage.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Handshake returns the JSON object received on channel 1, if any has
// arrived yet.
func (c *Client) Handshake() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handshake
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run connects to addr and streams until ctx is canceled or the connection
// fails. It blocks for the lifetime of the connection.
func (c *Client) Run(ctx context.Context, addr string) error {
	c.setState(Connecting)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.setState(Closed)
		return errors.Wrapf(err, "hudclient: dial %s", addr)
	}
	return c.Serve(ctx, conn)
}

// Serve drives an already-established connection through Handshake and
// Streaming. Run uses this after dialing; tests and callers that accept a
// connection through some other means (e.g. a pre-negotiated tunnel) can
// call it directly.
func (c *Client) Serve(ctx context.Context, conn net.Conn) error {
	c.conn = conn
	c.tc = transport.New(conn)

	c.setState(Handshake)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.streamLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})

	err := g.Wait()
	c.setState(Closed)
	return err
}

// streamLoop implements the Streaming state: receive, dispatch by channel,
// ack. There is no mid-frame cancellation; ctx is observed only between
// frames.
func (c *Client) streamLoop(ctx context.Context) error {
	c.setState(Streaming)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := c.tc.Receive()
		if err != nil {
			return errors.Wrap(err, "hudclient: receive")
		}

		switch frame.Channel {
		case transport.ChannelAck:
			// keep-alive; nothing to do.
		case transport.ChannelHandshake:
			var hs map[string]interface{}
			if err := json.Unmarshal(frame.Payload, &hs); err != nil {
				log.Warn("malformed handshake payload: %v", err)
			} else {
				c.mu.Lock()
				c.handshake = hs
				c.mu.Unlock()
			}
		case transport.ChannelBatch:
			records, err := tcpcodec.Decode(frame.Payload)
			if err != nil {
				log.Warn("tcpcodec decode: %v", err)
			}
			if len(records) > 0 {
				c.model.Update(records)
			}
		default:
			log.Warn("unknown channel %v, skipping frame", frame.Channel)
		}

		if err := c.tc.SendAck(); err != nil {
			return errors.Wrap(err, "hudclient: send ack")
		}
	}
}

// SendCommand delivers a JSON command to the server on channel 5.
func (c *Client) SendCommand(payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("hudclient: marshal command: %w", err)
	}
	return c.tc.Send(transport.Frame{Channel: transport.ChannelCommand, Payload: body})
}
