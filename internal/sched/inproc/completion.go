package inproc

import (
	"fmt"
	"sync"

	"github.com/sentinelos/dispatch/internal/infrastructure/monitoring"
	"github.com/sentinelos/dispatch/internal/spm/message"
)

// Reply is one delivered completion.
type Reply struct {
	MsgID  string `json:"msg_id"`
	Op     string `json:"op"`
	SID    uint32 `json:"sid"`
	Handle int32  `json:"handle"`
	Status int32  `json:"status"`
}

// Completion is the transport binding registered with the routing shim on
// the caller-facing side. HandleRequest drains one pending request closure;
// Reply releases the message record, notifies subscribers, and publishes an
// event.
type Completion struct {
	pool    *message.Pool
	sink    Sink
	metrics *monitoring.Metrics

	pending chan func()

	mu   sync.Mutex
	subs []chan Reply
}

// NewCompletion creates a completion binding with room for depth pending
// requests.
func NewCompletion(pool *message.Pool, depth int) *Completion {
	return &Completion{
		pool:    pool,
		pending: make(chan func(), depth),
	}
}

// WithSink attaches an event sink.
func (c *Completion) WithSink(s Sink) *Completion {
	c.sink = s
	return c
}

// WithMetrics attaches reply metrics.
func (c *Completion) WithMetrics(m *monitoring.Metrics) *Completion {
	c.metrics = m
	return c
}

// Submit queues one request closure for processing on the next
// HandleRequest signal.
func (c *Completion) Submit(fn func()) error {
	select {
	case c.pending <- fn:
		return nil
	default:
		return fmt.Errorf("pending request queue full")
	}
}

// HandleRequest implements rpc.Binding: it processes one pending request,
// if any.
func (c *Completion) HandleRequest() {
	select {
	case fn := <-c.pending:
		fn()
	default:
	}
}

// Reply implements rpc.Binding.
func (c *Completion) Reply(owner any, status int32) {
	m, ok := owner.(*message.Msg)
	if !ok {
		return
	}

	r := Reply{
		MsgID:  m.ID,
		Op:     m.Op.String(),
		Handle: int32(m.Handle),
		Status: status,
	}
	if m.Service != nil {
		r.SID = uint32(m.Service.SID)
	}

	c.pool.Put(m)

	if c.metrics != nil {
		outcome := "success"
		if status < 0 {
			outcome = "error"
		}
		c.metrics.RecordReply(outcome)
		c.metrics.PoolInUse.Set(float64(c.pool.InUse()))
	}

	if c.sink != nil {
		c.sink.Publish(Event{
			Type:   "replied",
			MsgID:  r.MsgID,
			Op:     r.Op,
			SID:    r.SID,
			Handle: r.Handle,
			Status: r.Status,
		})
	}

	c.mu.Lock()
	for _, ch := range c.subs {
		select {
		case ch <- r:
		default:
		}
	}
	c.mu.Unlock()
}

// Subscribe returns a channel receiving future replies. Slow subscribers
// drop replies rather than stall delivery.
func (c *Completion) Subscribe() <-chan Reply {
	ch := make(chan Reply, 16)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}
