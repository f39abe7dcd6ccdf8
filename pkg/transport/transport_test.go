package transport

import (
	"bytes"
	"io"
	"sync"
	"testing"
)

// pipe adapts a bytes.Buffer pair into an io.ReadWriter suitable for a
// single Conn under test, mirroring the loopback style minitunnel's test
// harness uses net.Pipe for.
type pipe struct {
	r io.Reader
	w io.Writer
}

func (p pipe) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipe) Write(b []byte) (int, error) { return p.w.Write(b) }

// P8: exact byte layout of a frame header and body.
func TestFrameByteLayout(t *testing.T) {
	var buf bytes.Buffer
	c := New(pipe{r: &buf, w: &buf})

	if err := c.Send(Frame{Channel: ChannelBatch, Payload: []byte{0xAA, 0xBB, 0xCC}}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	got := buf.Bytes()
	want := []byte{0x03, 0x00, 0x00, 0x00, 0x03, 0xAA, 0xBB, 0xCC}
	if !bytes.Equal(got, want) {
		t.Fatalf("frame bytes = % X, want % X", got, want)
	}
}

func TestSendReceiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	c := New(pipe{r: &buf, w: &buf})

	frames := []Frame{
		{Channel: ChannelAck},
		{Channel: ChannelHandshake, Payload: []byte(`{"lang":"en","version":"1.0"}`)},
		{Channel: ChannelBatch, Payload: []byte{0x01, 0x02, 0x03}},
	}
	for _, f := range frames {
		if err := c.Send(f); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	for i, want := range frames {
		got, err := c.Receive()
		if err != nil {
			t.Fatalf("Receive %d: %v", i, err)
		}
		if got.Channel != want.Channel || !bytes.Equal(got.Payload, want.Payload) {
			t.Fatalf("frame %d = %+v, want %+v", i, got, want)
		}
	}
}

func TestEmptyPayloadIsValid(t *testing.T) {
	var buf bytes.Buffer
	c := New(pipe{r: &buf, w: &buf})

	if err := c.SendAck(); err != nil {
		t.Fatalf("SendAck: %v", err)
	}
	f, err := c.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if f.Channel != ChannelAck || len(f.Payload) != 0 {
		t.Fatalf("got %+v, want empty ack frame", f)
	}
}

// P9: concurrent Sends never interleave a header with another frame's body.
func TestConcurrentSendsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	c := New(pipe{r: &buf, w: &buf})

	const n = 50
	payload := bytes.Repeat([]byte{0x42}, 16)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = c.Send(Frame{Channel: ChannelBatch, Payload: payload})
		}()
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		f, err := c.Receive()
		if err != nil {
			t.Fatalf("Receive %d: %v", i, err)
		}
		if f.Channel != ChannelBatch || !bytes.Equal(f.Payload, payload) {
			t.Fatalf("frame %d corrupted: %+v", i, f)
		}
	}
}

func TestReceiveErrorOnTruncatedHeader(t *testing.T) {
	buf := bytes.NewBuffer([]byte{0x01, 0x00})
	c := New(pipe{r: buf, w: &bytes.Buffer{}})

	if _, err := c.Receive(); err == nil {
		t.Fatal("expected error on truncated header")
	}
}

func TestChannelString(t *testing.T) {
	cases := map[Channel]string{
		ChannelAck:       "ack",
		ChannelHandshake: "handshake",
		ChannelBatch:     "batch",
		ChannelCommand:   "command",
	}
	for ch, want := range cases {
		if got := ch.String(); got != want {
			t.Errorf("Channel(%d).String() = %q, want %q", ch, got, want)
		}
	}
}
