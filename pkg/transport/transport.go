// Package transport implements the length-prefixed, channel-tagged framing
// that the client and server roles use over a single TCP stream (§4.6).
//
// Each frame is:
//
//	size:u32   channel:u8   payload:size bytes
//
// size counts only the payload; it does not include the channel byte. Sends
// are atomic at this layer -- header then body are written as one locked
// operation so frames from concurrent writers never interleave. Receives
// read the fixed 5-byte header, then loop until size bytes of payload have
// arrived; there is no mid-frame cancellation.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

// Channel identifies how a frame's payload should be interpreted (§4.6).
type Channel uint8

const (
	ChannelAck       Channel = 0 // empty payload; keep-alive/ack
	ChannelHandshake Channel = 1 // server->client JSON {"lang":..., "version":...}
	ChannelBatch     Channel = 3 // TCPFormat-encoded record batch
	ChannelCommand   Channel = 5 // client->server JSON command object
)

func (c Channel) String() string {
	switch c {
	case ChannelAck:
		return "ack"
	case ChannelHandshake:
		return "handshake"
	case ChannelBatch:
		return "batch"
	case ChannelCommand:
		return "command"
	default:
		return fmt.Sprintf("channel(%d)", uint8(c))
	}
}

// Frame is one framed message.
type Frame struct {
	Channel Channel
	Payload []byte
}

// Conn wraps a stream connection with frame-atomic Send and blocking
// Receive. The zero value is not usable; construct with New.
type Conn struct {
	rw       io.ReadWriter
	sendLock sync.Mutex
}

// New wraps rw for framed I/O. rw is typically a net.Conn, but any
// io.ReadWriter works -- tests use net.Pipe or a bytes-backed pipe.
func New(rw io.ReadWriter) *Conn {
	return &Conn{rw: rw}
}

// Send writes a complete frame. Concurrent Sends on the same Conn are
// serialized so a frame is never split by an interleaved write.
func (c *Conn) Send(f Frame) error {
	c.sendLock.Lock()
	defer c.sendLock.Unlock()

	var header [5]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(f.Payload)))
	header[4] = byte(f.Channel)

	if _, err := c.rw.Write(header[:]); err != nil {
		return fmt.Errorf("transport: write header: %w", err)
	}
	if len(f.Payload) > 0 {
		if _, err := c.rw.Write(f.Payload); err != nil {
			return fmt.Errorf("transport: write payload: %w", err)
		}
	}
	return nil
}

// SendAck writes an empty channel-0 keep-alive/ack frame.
func (c *Conn) SendAck() error {
	return c.Send(Frame{Channel: ChannelAck})
}

// Receive blocks until one complete frame has arrived, or an error (such as
// io.EOF on an orderly close) occurs. A partial frame on disconnect is
// reported as an error; it is never returned as a short frame.
func (c *Conn) Receive() (Frame, error) {
	var header [5]byte
	if _, err := io.ReadFull(c.rw, header[:]); err != nil {
		return Frame{}, err
	}
	size := binary.LittleEndian.Uint32(header[0:4])
	channel := Channel(header[4])

	payload := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(c.rw, payload); err != nil {
			return Frame{}, fmt.Errorf("transport: read payload: %w", err)
		}
	}
	return Frame{Channel: channel, Payload: payload}, nil
}
