package message

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Msg is the internal request record built for one connect, call, or
// disconnect operation. The dispatch layer owns it until the service
// completes it; the vector slices are dispatcher-owned copies, never views
// into caller memory.
type Msg struct {
	ID       string
	Op       types.Op
	Handle   types.Handle
	Service  *registry.Descriptor
	NSCaller bool
	ClientID int32

	In  []types.InVec
	Out []types.OutVec

	// OutOrig is the caller-space address of the original output vector
	// array, retained so actual lengths can be written back there when the
	// service completes.
	OutOrig uint64

	CreatedAt time.Time
}

// Pool is a fixed-capacity message allocator. Exhaustion returns nil; the
// connect path surfaces that as a busy status, which is the one transient
// condition a client is allowed to observe.
type Pool struct {
	mu    sync.Mutex
	free  []*Msg
	total int
}

// NewPool creates a pool of n message records.
func NewPool(n int) *Pool {
	p := &Pool{
		free:  make([]*Msg, 0, n),
		total: n,
	}
	for i := 0; i < n; i++ {
		p.free = append(p.free, &Msg{})
	}
	return p
}

// Get allocates a message record, or returns nil when the pool is dry.
func (p *Pool) Get() *Msg {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		return nil
	}
	m := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	*m = Msg{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}
	return m
}

// Put returns a completed message record to the pool.
func (p *Pool) Put(m *Msg) {
	if m == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) < p.total {
		p.free = append(p.free, m)
	}
}

// InUse returns the number of records currently allocated.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total - len(p.free)
}

// Capacity returns the fixed pool size.
func (p *Pool) Capacity() int {
	return p.total
}

// Scheduler is the hand-off point to the excluded scheduling subsystem.
// Enqueue places a message on the owning partition's queue and wakes it;
// it is the only way this core releases a request.
type Scheduler interface {
	Enqueue(svc *registry.Descriptor, m *Msg) error
}
