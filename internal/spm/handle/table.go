package handle

import (
	"fmt"
	"sync"
	"time"

	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Connection is one live client connection to a service. A connection is
// owned by exactly one client at a time.
type Connection struct {
	Handle    types.Handle
	Service   *registry.Descriptor
	ClientID  int32
	NSCaller  bool
	CreatedAt time.Time
}

// Table maps opaque client handles to live connections. Creation and
// destruction are atomic with respect to lookups; a misordered teardown
// versus lookup would be an unauthorized-access hole, so everything runs
// under one mutex.
type Table struct {
	mu    sync.Mutex
	conns map[types.Handle]*Connection
	next  types.Handle
}

// NewTable creates an empty connection table.
func NewTable() *Table {
	return &Table{
		conns: make(map[types.Handle]*Connection),
		next:  1,
	}
}

// Open allocates a fresh handle bound to the given service. The null handle
// is never allocated.
func (t *Table) Open(svc *registry.Descriptor, clientID int32, ns bool) (types.Handle, error) {
	if svc == nil {
		return types.NullHandle, fmt.Errorf("cannot open connection to nil service")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.next
	t.next++

	t.conns[h] = &Connection{
		Handle:    h,
		Service:   svc,
		ClientID:  clientID,
		NSCaller:  ns,
		CreatedAt: time.Now(),
	}
	return h, nil
}

// Lookup resolves a handle to its live connection, or nil when the handle
// is dead or was never issued. The null handle never resolves.
func (t *Table) Lookup(h types.Handle) *Connection {
	if h == types.NullHandle {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[h]
}

// Close destroys a connection. It reports whether the handle was live.
func (t *Table) Close(h types.Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.conns[h]; !ok {
		return false
	}
	delete(t.conns, h)
	return true
}

// List returns a snapshot of all live connections.
func (t *Table) List() []Connection {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Connection, 0, len(t.conns))
	for _, c := range t.conns {
		out = append(out, *c)
	}
	return out
}

// Len returns the number of live connections.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}
