package model

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ListenerKind distinguishes the two notification multicasts a Model
// supports.
type ListenerKind int

const (
	// KindUpdate fires once per Update call with the ids written in that
	// batch, in the order they appeared.
	KindUpdate ListenerKind = iota
	// KindCommand fires for out-of-band command payloads forwarded by the
	// transport layer (channel 5, and channel 1 client->server); the
	// Model itself never produces KindCommand events, it only holds the
	// registration so a single owner (the server role) can multiplex
	// listeners the same way it multiplexes update listeners.
	KindCommand
)

// UpdateFunc is called with the ids changed by one Update batch.
type UpdateFunc func(changed []Id)

// CommandFunc is called with an opaque command payload.
type CommandFunc func(payload []byte)

type pathEntry struct {
	edge   string
	parent Id
}

// Model is the in-memory identifier table: items by Id, a path index back
// to the root, and listener registrations. It has no state machine of its
// own -- it is a data store with notifications -- but Update/Load/Dump are
// mutually exclusive with each other via mu, matching the single-writer
// discipline required of the transport roles that mutate it concurrently
// with their own network goroutine.
type Model struct {
	mu    sync.Mutex
	items map[Id]Value
	path  map[Id]pathEntry

	listenersMu    sync.Mutex
	updateFuncs    []UpdateFunc
	commandFuncs   []CommandFunc
}

// New returns an empty Model. Callers almost always want Load immediately
// after, to establish invariant I1 (items[0] exists).
func New() *Model {
	return &Model{
		items: make(map[Id]Value),
		path:  make(map[Id]pathEntry),
	}
}

// Register adds a listener. kind selects which multicast it joins.
// Register must be called before the owning transport role starts its
// network goroutine -- adding a listener concurrently with Update is not
// required to be safe.
func (m *Model) Register(kind ListenerKind, fn interface{}) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	switch kind {
	case KindUpdate:
		if f, ok := fn.(UpdateFunc); ok {
			m.updateFuncs = append(m.updateFuncs, f)
			return
		}
		if f, ok := fn.(func([]Id)); ok {
			m.updateFuncs = append(m.updateFuncs, f)
			return
		}
		panic("model: Register(KindUpdate, ...) needs an UpdateFunc")
	case KindCommand:
		if f, ok := fn.(CommandFunc); ok {
			m.commandFuncs = append(m.commandFuncs, f)
			return
		}
		if f, ok := fn.(func([]byte)); ok {
			m.commandFuncs = append(m.commandFuncs, f)
			return
		}
		panic("model: Register(KindCommand, ...) needs a CommandFunc")
	default:
		panic("model: unknown listener kind")
	}
}

// GetItem returns the Value stored at id.
func (m *Model) GetItem(id Id) (Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.items[id]
	if !ok {
		return Value{}, errors.Wrapf(ErrUnknownID, "id %d", id)
	}
	return v, nil
}

// GetPath returns the dotted/indexed path from the root to id, e.g.
// "$.Status.IsPlayerDead" or "$.Log[3]". The root's path is "$".
func (m *Model) GetPath(id Id) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getPathLocked(id)
}

func (m *Model) getPathLocked(id Id) (string, error) {
	if id == 0 {
		return "$", nil
	}
	e, ok := m.path[id]
	if !ok {
		return "", errors.Wrapf(ErrNoPath, "id %d", id)
	}
	parent, err := m.getPathLocked(e.parent)
	if err != nil {
		return "", err
	}
	return parent + e.edge, nil
}

// Update atomically overwrites items[id] for every record in the batch,
// rewrites the path index for any List/Dict values in the batch, and then
// invokes every registered update listener exactly once with the full list
// of changed ids, in batch order. Update does not validate that a List or
// Dict's referenced children exist yet: a parent may arrive before its
// children within the same batch or across batches.
func (m *Model) Update(batch []Record) {
	changed := make([]Id, 0, len(batch))

	m.mu.Lock()
	for _, rec := range batch {
		m.items[rec.Id] = rec.Value
		changed = append(changed, rec.Id)

		switch rec.Value.kind {
		case KindList:
			for i, child := range rec.Value.list {
				m.path[child] = pathEntry{edge: fmt.Sprintf("[%d]", i), parent: rec.Id}
			}
		case KindDict:
			for name, child := range rec.Value.dict {
				m.path[child] = pathEntry{edge: "." + name, parent: rec.Id}
			}
		}
	}
	m.mu.Unlock()

	m.listenersMu.Lock()
	funcs := make([]UpdateFunc, len(m.updateFuncs))
	copy(funcs, m.updateFuncs)
	m.listenersMu.Unlock()

	for _, fn := range funcs {
		fn(changed)
	}
}

// Command delivers an opaque payload to every registered command listener,
// in registration order. The Model never interprets the payload.
func (m *Model) Command(payload []byte) {
	m.listenersMu.Lock()
	funcs := make([]CommandFunc, len(m.commandFuncs))
	copy(funcs, m.commandFuncs)
	m.listenersMu.Unlock()

	for _, fn := range funcs {
		fn(payload)
	}
}

// Load clears the table and path index, then applies batch via Update. Load
// is how a server boots from a startup template or a client absorbs the
// initial snapshot's *semantics* (in practice the client's first batch is
// applied with Update directly since the table starts empty already).
func (m *Model) Load(batch []Record) {
	m.mu.Lock()
	m.items = make(map[Id]Value)
	m.path = make(map[Id]pathEntry)
	m.mu.Unlock()

	m.Update(batch)
}

// Dump returns records for id. If recursive is false, it returns just
// [(id, items[id])]. If recursive is true, it emits every descendant
// post-order (children before parent) followed by id itself -- the same
// ordering AppFormat and NativeFormat produce on the wire.
func (m *Model) Dump(id Id, recursive bool) []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.dumpLocked(id, recursive)
}

func (m *Model) dumpLocked(id Id, recursive bool) []Record {
	item := m.items[id]
	var result []Record

	if recursive {
		switch item.kind {
		case KindList:
			for _, child := range item.list {
				result = append(result, m.dumpLocked(child, recursive)...)
			}
		case KindDict:
			for _, child := range item.dict {
				result = append(result, m.dumpLocked(child, recursive)...)
			}
		}
	}

	result = append(result, Record{Id: id, Value: item})
	return result
}

// Snapshot is a convenience wrapper returning the entire reachable tree
// from the root, equivalent to Dump(0, true).
func (m *Model) Snapshot() []Record {
	return m.Dump(0, true)
}
