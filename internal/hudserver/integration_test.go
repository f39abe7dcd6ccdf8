package hudserver

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/cascadelabs/hudsync/internal/hudclient"
	"github.com/cascadelabs/hudsync/pkg/model"
)

// Scenario 1: handshake snapshot. The client observes a channel-1 frame
// decodable as {lang, version} and a channel-3 snapshot that leaves the
// root at Id 0 holding a Dict. The server boots from bootModel's 4-record
// stand-in, not the full startup template, so the record count is not
// checked.
func TestHandshakeSnapshot(t *testing.T) {
	serverModel := model.New()
	serverModel.Load(bootModel(t))

	clientModel := model.New()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	srv := New(serverModel, HandshakeInfo{Lang: "en", Version: "1.0"})
	go srv.serveConn(ctx, serverConn)

	cli := hudclient.New(clientModel)
	done := make(chan error, 1)
	go func() { done <- cli.Serve(ctx, clientConn) }()

	// Give the streaming loop a moment to apply the snapshot.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hs := cli.Handshake(); hs != nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	hs := cli.Handshake()
	if hs == nil {
		t.Fatal("client never received a handshake")
	}
	if hs["lang"] != "en" || hs["version"] != "1.0" {
		t.Errorf("handshake = %v, want lang=en version=1.0", hs)
	}

	root, err := clientModel.GetItem(0)
	if err != nil {
		t.Fatalf("client model missing root after snapshot: %v", err)
	}
	if root.Kind() != model.KindDict {
		t.Fatalf("root kind = %v, want Dict", root.Kind())
	}

	cancel()
	<-done
}

// Scenario 2: delta propagation. After the handshake, the server applies an
// update and the client's model reflects it via get_item/get_path.
func TestDeltaPropagation(t *testing.T) {
	serverModel := model.New()
	serverModel.Load(bootModel(t))

	statusID := findChild(t, serverModel, 0, "Status")
	deadID := findChild(t, serverModel, statusID, "IsPlayerDead")

	clientModel := model.New()

	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	srv := New(serverModel, HandshakeInfo{Lang: "en", Version: "1.0"})
	go srv.serveConn(ctx, serverConn)

	cli := hudclient.New(clientModel)
	done := make(chan error, 1)
	go func() { done <- cli.Serve(ctx, clientConn) }()

	waitForItem(t, clientModel, 0, 2*time.Second)

	serverModel.Update([]model.Record{{Id: deadID, Value: model.Bool(true)}})

	waitForBoolValue(t, clientModel, deadID, true, 2*time.Second)

	path, err := clientModel.GetPath(deadID)
	if err != nil {
		t.Fatalf("GetPath: %v", err)
	}
	if path != "$.Status.IsPlayerDead" {
		t.Errorf("path = %q, want $.Status.IsPlayerDead", path)
	}

	cancel()
	<-done
}

func bootModel(t *testing.T) []model.Record {
	t.Helper()
	// A minimal stand-in for the full startup template, enough to exercise
	// nesting and path resolution.
	records := []model.Record{
		{Id: 3, Value: model.Bool(false)},
		{Id: 2, Value: model.Dict(map[string]model.Id{"IsPlayerDead": 3})},
		{Id: 1, Value: model.Str("placeholder")},
		{Id: 0, Value: model.Dict(map[string]model.Id{"Status": 2, "Log": 1})},
	}
	return records
}

func findChild(t *testing.T, m *model.Model, parent model.Id, name string) model.Id {
	t.Helper()
	v, err := m.GetItem(parent)
	if err != nil {
		t.Fatalf("GetItem(%d): %v", parent, err)
	}
	dict, ok := v.AsDict()
	if !ok {
		t.Fatalf("id %d is not a Dict", parent)
	}
	id, ok := dict[name]
	if !ok {
		t.Fatalf("dict at %d has no child %q", parent, name)
	}
	return id
}

func waitForItem(t *testing.T, m *model.Model, id model.Id, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := m.GetItem(id); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("id %d never appeared in client model within %v", id, timeout)
}

func waitForBoolValue(t *testing.T, m *model.Model, id model.Id, want bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if v, err := m.GetItem(id); err == nil {
			if b, ok := v.AsBool(); ok && b == want {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("id %d never reached Bool(%v) within %v", id, want, timeout)
}
