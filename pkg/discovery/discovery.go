// Package discovery implements the UDP autodiscovery exchange described in
// §6.2: a client broadcasts a one-shot JSON ping and collects whatever
// replies arrive within a fixed window; a server answers every ping it
// sees. Both sides treat the reply payload as opaque JSON except for the
// "IpAddr" key the client stamps on after receipt.
package discovery

import (
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"
)

const (
	// Port is the UDP port autodiscovery broadcasts and listens on.
	Port = 28000

	readBufferSize = 1024
	pingTimeout    = 5 * time.Second
)

// pingMessage is the client's broadcast request.
type pingMessage struct {
	Cmd string `json:"cmd"`
}

// Reply is one server's response, with the responder's source address
// merged in under "IpAddr" the way the reference client does.
type Reply map[string]interface{}

// Discover broadcasts an autodiscover ping on Port and collects replies for
// up to five seconds. A timeout with zero replies is not an error -- it
// just yields an empty slice.
func Discover() ([]Reply, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, errors.Wrap(err, "discovery: open socket")
	}
	defer conn.Close()

	body, err := json.Marshal(pingMessage{Cmd: "autodiscover"})
	if err != nil {
		return nil, errors.Wrap(err, "discovery: marshal ping")
	}

	dest := &net.UDPAddr{IP: net.IPv4bcast, Port: Port}
	if _, err := conn.WriteToUDP(body, dest); err != nil {
		return nil, errors.Wrap(err, "discovery: send broadcast")
	}

	if err := conn.SetReadDeadline(time.Now().Add(pingTimeout)); err != nil {
		return nil, errors.Wrap(err, "discovery: set deadline")
	}

	var results []Reply
	buf := make([]byte, readBufferSize)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				break
			}
			return results, errors.Wrap(err, "discovery: read")
		}

		var reply Reply
		if err := json.Unmarshal(buf[:n], &reply); err != nil {
			continue // malformed reply from a non-conforming responder; skip it
		}
		reply["IpAddr"] = addr.IP.String()
		results = append(results, reply)
	}

	return results, nil
}

// Responder answers autodiscovery pings with a fixed payload until Close is
// called. It is the server-side collaborator referenced by §6.2; the
// payload content beyond "IpAddr" (which the client adds itself) is up to
// the caller.
type Responder struct {
	conn    *net.UDPConn
	payload []byte
}

// NewResponder binds Port. payload is marshaled to JSON once here; the
// resulting bytes are sent back to every ping Serve receives.
func NewResponder(payload interface{}) (*Responder, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "discovery: marshal responder payload")
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: Port})
	if err != nil {
		return nil, errors.Wrap(err, "discovery: bind")
	}

	return &Responder{conn: conn, payload: body}, nil
}

// Serve blocks, replying to every well-formed ping until the Responder is
// closed, at which point it returns the error that unblocked it (typically
// net.ErrClosed, which the caller should treat as a clean shutdown).
func (r *Responder) Serve() error {
	buf := make([]byte, readBufferSize)
	for {
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}

		var ping pingMessage
		if err := json.Unmarshal(buf[:n], &ping); err != nil {
			continue
		}
		if ping.Cmd != "autodiscover" {
			continue
		}

		if _, err := r.conn.WriteToUDP(r.payload, addr); err != nil {
			return fmt.Errorf("discovery: reply to %v: %w", addr, err)
		}
	}
}

// Close stops the Responder, unblocking Serve.
func (r *Responder) Close() error {
	return r.conn.Close()
}
