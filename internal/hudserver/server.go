// Package hudserver implements the server role (§4.8): accept one client,
// send a handshake and full snapshot, then stream model deltas while
// accepting client-driven updates and commands.
package hudserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/cascadelabs/hudsync/internal/applog"
	"github.com/cascadelabs/hudsync/pkg/model"
	"github.com/cascadelabs/hudsync/pkg/tcpcodec"
	"github.com/cascadelabs/hudsync/pkg/transport"
)

var log = applog.Named("hudserver")

// State is one of the server's lifecycle stages.
type State int

const (
	Idle State = iota
	Accepting
	Handshake
	Streaming
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accepting:
		return "accepting"
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

// HandshakeInfo is the JSON object sent on channel 1 at connect time.
type HandshakeInfo struct {
	Lang    string `json:"lang"`
	Version string `json:"version"`
}

// Server accepts a single client over one TCP listener and mirrors m to it.
type Server struct {
	model     *model.Model
	handshake HandshakeInfo

	state State
}

// New returns a Server that streams m's contents once a client connects.
func New(m *model.Model, hs HandshakeInfo) *Server {
	return &Server{model: m, handshake: hs, state: Idle}
}

// State reports the server's current lifecycle stage.
func (s *Server) State() State {
	return s.state
}

// ListenAndServe binds addr, accepts exactly one client, drives it through
// Handshake and Streaming, and blocks until that client disconnects or ctx
// is canceled. It is meant to be called once; accepting a second client
// after the first disconnects is the caller's responsibility (call again
// with a fresh Server if that behavior is wanted).
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.state = Accepting

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		s.state = Closed
		return errors.Wrapf(err, "hudserver: listen %s", addr)
	}
	defer ln.Close()

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, err := ln.Accept()
		accepted <- acceptResult{conn, err}
	}()

	var conn net.Conn
	select {
	case <-ctx.Done():
		s.state = Closed
		return ctx.Err()
	case r := <-accepted:
		if r.err != nil {
			s.state = Closed
			return errors.Wrap(r.err, "hudserver: accept")
		}
		conn = r.conn
	}
	defer conn.Close()

	return s.serveConn(ctx, conn)
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) error {
	tc := transport.New(conn)

	s.state = Handshake
	if err := s.sendHandshake(tc); err != nil {
		s.state = Closed
		return err
	}

	s.state = Streaming

	g, gctx := errgroup.WithContext(ctx)

	unregister := s.registerDeltaPush(tc)
	defer unregister()

	g.Go(func() error {
		return s.readLoop(gctx, tc)
	})
	g.Go(func() error {
		<-gctx.Done()
		return conn.Close()
	})

	err := g.Wait()
	s.state = Closed
	return err
}

// sendHandshake implements the Handshake state: channel 1 JSON, then the
// full model as one channel-3 frame.
func (s *Server) sendHandshake(tc *transport.Conn) error {
	body, err := json.Marshal(s.handshake)
	if err != nil {
		return fmt.Errorf("hudserver: marshal handshake: %w", err)
	}
	if err := tc.Send(transport.Frame{Channel: transport.ChannelHandshake, Payload: body}); err != nil {
		return errors.Wrap(err, "hudserver: send handshake")
	}

	snapshot := s.model.Dump(0, true)
	payload, err := tcpcodec.Encode(snapshot)
	if err != nil {
		return errors.Wrap(err, "hudserver: encode snapshot")
	}
	if err := tc.Send(transport.Frame{Channel: transport.ChannelBatch, Payload: payload}); err != nil {
		return errors.Wrap(err, "hudserver: send snapshot")
	}
	return nil
}

// registerDeltaPush installs an update listener that pushes a non-recursive
// dump of each changed Id, concatenated, on channel 3 for every update
// batch. It returns a func to remove the listener (the Model has no
// explicit unregister primitive, so this is a best-effort no-op closure
// documenting the intent; Model listeners live for the Model's lifetime).
func (s *Server) registerDeltaPush(tc *transport.Conn) func() {
	s.model.Register(model.KindUpdate, func(changed []model.Id) {
		var records []model.Record
		for _, id := range changed {
			records = append(records, s.model.Dump(id, false)...)
		}
		payload, err := tcpcodec.Encode(records)
		if err != nil {
			log.Error("encode delta: %v", err)
			return
		}
		if err := tc.Send(transport.Frame{Channel: transport.ChannelBatch, Payload: payload}); err != nil {
			log.Error("send delta: %v", err)
		}
	})
	return func() {}
}

// readLoop implements the concurrent read side of Streaming: dispatch by
// channel, ack after every frame.
func (s *Server) readLoop(ctx context.Context, tc *transport.Conn) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := tc.Receive()
		if err != nil {
			return errors.Wrap(err, "hudserver: receive")
		}

		switch frame.Channel {
		case transport.ChannelAck:
			// ignored
		case transport.ChannelHandshake, transport.ChannelCommand:
			s.model.Command(frame.Payload)
		case transport.ChannelBatch:
			records, err := tcpcodec.Decode(frame.Payload)
			if err != nil {
				log.Warn("tcpcodec decode: %v", err)
			}
			if len(records) > 0 {
				s.model.Update(records)
			}
		default:
			log.Warn("unknown channel %v, discarding frame", frame.Channel)
		}

		if err := tc.SendAck(); err != nil {
			return errors.Wrap(err, "hudserver: send ack")
		}
	}
}
