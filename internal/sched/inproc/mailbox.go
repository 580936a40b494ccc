package inproc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
	"github.com/sentinelos/dispatch/internal/infrastructure/monitoring"
	"github.com/sentinelos/dispatch/internal/spm/boundary"
	"github.com/sentinelos/dispatch/internal/spm/handle"
	"github.com/sentinelos/dispatch/internal/spm/message"
	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/rpc"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Service is the partition-side behavior of one RoT service running inside
// the in-process mailbox.
type Service interface {
	// Connect reports whether a new connection is accepted.
	Connect(ns bool) bool

	// Call handles one request. in holds the input payloads; out is
	// pre-sized to the output vector lengths. The returned slice gives the
	// bytes actually written per output vector, and the int32 is the
	// service status delivered to the caller.
	Call(in [][]byte, out [][]byte) ([]int, int32)

	// Disconnect is notified when a connection is torn down.
	Disconnect()
}

type partition struct {
	name  string
	svc   Service
	queue chan *message.Msg
}

// Mailbox is the in-process scheduler and transport standing in for the
// platform's cross-core mailbox: one goroutine per partition drains a
// bounded queue, executes the service against the simulated address space,
// and delivers completions through the routing shim.
type Mailbox struct {
	space   *boundary.SimSpace
	handles *handle.Table
	router  *rpc.Router
	log     *logging.Logger
	metrics *monitoring.Metrics
	sink    Sink

	mu      sync.Mutex
	parts   map[string]*partition
	started bool

	wg sync.WaitGroup
}

// New creates a mailbox. The router is where completions are reported; the
// handle table is where connect/disconnect lifecycle lands.
func New(space *boundary.SimSpace, handles *handle.Table, router *rpc.Router, log *logging.Logger) *Mailbox {
	return &Mailbox{
		space:   space,
		handles: handles,
		router:  router,
		log:     log,
		parts:   make(map[string]*partition),
	}
}

// WithMetrics attaches queue metrics.
func (mb *Mailbox) WithMetrics(m *monitoring.Metrics) *Mailbox {
	mb.metrics = m
	return mb
}

// WithSink attaches an event sink.
func (mb *Mailbox) WithSink(s Sink) *Mailbox {
	mb.sink = s
	return mb
}

// RegisterPartition binds a service implementation to a partition name with
// a bounded request queue. Must be called before Start.
func (mb *Mailbox) RegisterPartition(name string, svc Service, depth int) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.started {
		return fmt.Errorf("mailbox already started")
	}
	if _, exists := mb.parts[name]; exists {
		return fmt.Errorf("partition %q already registered", name)
	}

	mb.parts[name] = &partition{
		name:  name,
		svc:   svc,
		queue: make(chan *message.Msg, depth),
	}
	return nil
}

// Start launches one worker goroutine per registered partition.
func (mb *Mailbox) Start() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.started {
		return
	}
	mb.started = true

	for _, p := range mb.parts {
		mb.wg.Add(1)
		go mb.run(p)
	}
}

// Stop closes all partition queues and waits for in-flight requests to
// drain.
func (mb *Mailbox) Stop() {
	mb.mu.Lock()
	if !mb.started {
		mb.mu.Unlock()
		return
	}
	for _, p := range mb.parts {
		close(p.queue)
	}
	mb.mu.Unlock()

	mb.wg.Wait()
}

// Enqueue implements message.Scheduler. It never blocks: a full partition
// queue is a submission failure for the caller to deal with.
func (mb *Mailbox) Enqueue(svc *registry.Descriptor, m *message.Msg) error {
	mb.mu.Lock()
	p, ok := mb.parts[svc.Partition]
	mb.mu.Unlock()

	if !ok {
		return fmt.Errorf("no partition %q for service %#x", svc.Partition, uint32(svc.SID))
	}

	select {
	case p.queue <- m:
	default:
		return fmt.Errorf("partition %q queue full", svc.Partition)
	}

	if mb.metrics != nil {
		mb.metrics.QueueDepth.WithLabelValues(p.name).Set(float64(len(p.queue)))
	}
	mb.publish(Event{
		Type:      "enqueued",
		MsgID:     m.ID,
		Op:        m.Op.String(),
		Partition: p.name,
		SID:       uint32(svc.SID),
		Handle:    int32(m.Handle),
	})
	return nil
}

func (mb *Mailbox) run(p *partition) {
	defer mb.wg.Done()

	for m := range p.queue {
		ret := mb.process(p, m)
		if mb.metrics != nil {
			mb.metrics.QueueDepth.WithLabelValues(p.name).Set(float64(len(p.queue)))
		}
		mb.router.Reply(m, ret)
	}
}

func (mb *Mailbox) process(p *partition, m *message.Msg) int32 {
	switch m.Op {
	case types.OpConnect:
		if !p.svc.Connect(m.NSCaller) {
			return int32(types.StatusError)
		}
		h, err := mb.handles.Open(m.Service, m.ClientID, m.NSCaller)
		if err != nil {
			mb.log.Error("handle allocation failed",
				zap.String("partition", p.name), zap.Error(err))
			return int32(types.StatusError)
		}
		if mb.metrics != nil {
			mb.metrics.Connections.Set(float64(mb.handles.Len()))
		}
		return int32(h)

	case types.OpCall:
		return mb.call(p, m)

	case types.OpDisconnect:
		mb.handles.Close(m.Handle)
		p.svc.Disconnect()
		if mb.metrics != nil {
			mb.metrics.Connections.Set(float64(mb.handles.Len()))
		}
		return int32(types.StatusSuccess)

	default:
		mb.log.Error("unknown operation", zap.Int32("op", int32(m.Op)))
		return int32(types.StatusError)
	}
}

// call moves payloads across the boundary: inputs are read from the
// validated copied regions, outputs are written back and the actual
// lengths stored through the retained original out-vec pointer.
func (mb *Mailbox) call(p *partition, m *message.Msg) int32 {
	in := make([][]byte, len(m.In))
	for i, vec := range m.In {
		data, err := mb.space.ReadBytes(vec.Base, vec.Len)
		if err != nil {
			mb.log.Error("input payload read failed",
				zap.String("partition", p.name), zap.Int("vec", i), zap.Error(err))
			return int32(types.StatusError)
		}
		in[i] = data
	}

	out := make([][]byte, len(m.Out))
	for i, vec := range m.Out {
		out[i] = make([]byte, vec.Len)
	}

	written, ret := p.svc.Call(in, out)

	for i, vec := range m.Out {
		n := 0
		if i < len(written) {
			n = written[i]
		}
		if n > len(out[i]) {
			n = len(out[i])
		}
		if err := mb.space.WriteBytes(vec.Base, out[i][:n]); err != nil {
			mb.log.Error("output payload write failed",
				zap.String("partition", p.name), zap.Int("vec", i), zap.Error(err))
			return int32(types.StatusError)
		}
		if err := mb.space.WriteOutVecLen(m.OutOrig, i, uint64(n)); err != nil {
			mb.log.Error("out-vec length write-back failed",
				zap.String("partition", p.name), zap.Int("vec", i), zap.Error(err))
			return int32(types.StatusError)
		}
	}

	return ret
}

func (mb *Mailbox) publish(e Event) {
	if mb.sink != nil {
		mb.sink.Publish(e)
	}
}
