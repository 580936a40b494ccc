package client

import (
	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
	"github.com/sentinelos/dispatch/internal/infrastructure/monitoring"
	"github.com/sentinelos/dispatch/internal/spm/boundary"
	"github.com/sentinelos/dispatch/internal/spm/handle"
	"github.com/sentinelos/dispatch/internal/spm/message"
	"github.com/sentinelos/dispatch/internal/spm/nspm"
	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/trap"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Termination reasons, used as metric labels and trap messages.
const (
	ReasonUnknownService  = "unknown-service"
	ReasonUnauthorized    = "unauthorized-ns-access"
	ReasonVersion         = "unsupported-version"
	ReasonVecOverflow     = "iovec-count-overflow"
	ReasonInvalidHandle   = "invalid-handle"
	ReasonVecArrayAccess  = "vec-array-violation"
	ReasonBufferAccess    = "buffer-violation"
	ReasonDispatchFailure = "dispatch-failure"
)

// Dispatcher is the client-call entry surface of the dispatch core. Every
// public operation either completes synchronously or terminates the
// offending execution context through the trap; nothing here blocks.
type Dispatcher struct {
	reg       *registry.Registry
	handles   *handle.Table
	validator *boundary.Validator
	pool      *message.Pool
	sched     message.Scheduler
	trap      trap.Trap
	log       *logging.Logger
	metrics   *monitoring.Metrics
}

// New creates a dispatcher over explicitly owned collaborators. Nothing is
// ambient: the registry, handle table, and scheduler are all passed in.
func New(
	reg *registry.Registry,
	handles *handle.Table,
	validator *boundary.Validator,
	pool *message.Pool,
	sched message.Scheduler,
	tr trap.Trap,
	log *logging.Logger,
) *Dispatcher {
	return &Dispatcher{
		reg:       reg,
		handles:   handles,
		validator: validator,
		pool:      pool,
		sched:     sched,
		trap:      tr,
		log:       log,
	}
}

// WithMetrics attaches dispatch metrics.
func (d *Dispatcher) WithMetrics(m *monitoring.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// FrameworkVersion returns the constant framework version.
func (d *Dispatcher) FrameworkVersion() uint32 {
	return types.FrameworkVersion
}

// Version returns the minor version of a service, or VersionNone when the
// service is unknown or the caller may not see it. Absent and unauthorized
// collapse to the same sentinel so a non-secure caller cannot probe for
// service existence.
func (d *Dispatcher) Version(sid types.SID, ns bool) uint32 {
	svc := d.reg.BySID(sid)
	if svc == nil {
		return types.VersionNone
	}
	if ns && !svc.NonSecureClients {
		return types.VersionNone
	}
	return svc.MinorVersion
}

// Connect establishes a new connection to a service. An unknown SID,
// unauthorized non-secure access, or an incompatible version terminates the
// caller. Message-pool exhaustion is the one transient condition reported
// back, as StatusBusy.
func (d *Dispatcher) Connect(sid types.SID, minor uint32, ns bool) types.Status {
	svc := d.reg.BySID(sid)
	if svc == nil {
		return d.fatal(ReasonUnknownService,
			zap.Uint32("sid", uint32(sid)), zap.Bool("ns", ns))
	}

	if ns && !svc.NonSecureClients {
		return d.fatal(ReasonUnauthorized,
			zap.Uint32("sid", uint32(sid)), zap.String("service", svc.Name))
	}

	if !registry.CheckVersion(svc, minor) {
		return d.fatal(ReasonVersion,
			zap.Uint32("sid", uint32(sid)),
			zap.Uint32("requested", minor),
			zap.Uint32("supported", svc.MinorVersion))
	}

	// No input or output payload on a connect message.
	m := d.pool.Get()
	if m == nil {
		if d.metrics != nil {
			d.metrics.BusyTotal.Inc()
		}
		return types.StatusBusy
	}

	m.Op = types.OpConnect
	m.Handle = types.NullHandle
	m.Service = svc
	m.NSCaller = ns
	m.ClientID = nspm.ClientID(ns)

	if err := d.enqueue(svc, m); err != nil {
		// Mirrors the source behavior: a lost connect is not surfaced.
		d.log.Warn("connect enqueue failed",
			zap.Uint32("sid", uint32(sid)), zap.Error(err))
		d.pool.Put(m)
	}

	return types.StatusSuccess
}

// Call dispatches a request on an established connection. The vector
// descriptor arrays live at inBase/outBase in caller memory; they are
// validated, copied, and re-validated region by region before anything is
// built from them. Every gate failure terminates the caller.
func (d *Dispatcher) Call(h types.Handle, inBase uint64, inLen int, outBase uint64, outLen int, ns bool) types.Status {
	// Each count is gated on its own before the sum, so huge values cannot
	// wrap the addition negative and slip past.
	if inLen < 0 || outLen < 0 ||
		inLen > types.MaxIOVec || outLen > types.MaxIOVec ||
		inLen+outLen > types.MaxIOVec {
		return d.fatal(ReasonVecOverflow,
			zap.Int("in_len", inLen), zap.Int("out_len", outLen))
	}

	conn := d.handles.Lookup(h)
	if conn == nil {
		return d.fatal(ReasonInvalidHandle, zap.Int32("handle", int32(h)))
	}

	// The descriptor arrays themselves must be readable before anything is
	// copied out of them.
	if err := d.validator.CheckVecArrays(inBase, inLen, outBase, outLen, ns); err != nil {
		return d.fatal(ReasonVecArrayAccess,
			zap.Int32("handle", int32(h)), zap.Error(err))
	}

	// Copy out of caller memory, then validate only the copy. A concurrent
	// writer in the caller's space must not be able to swap base or length
	// between the check and the use.
	in, out, err := d.validator.CopyVecs(inBase, inLen, outBase, outLen)
	if err != nil {
		return d.fatal(ReasonVecArrayAccess,
			zap.Int32("handle", int32(h)), zap.Error(err))
	}

	if err := d.validator.CheckRegions(in, out, ns); err != nil {
		return d.fatal(ReasonBufferAccess,
			zap.Int32("handle", int32(h)), zap.Error(err))
	}

	m := d.pool.Get()
	if m == nil {
		// Exhaustion terminates here, unlike connect. Kept as-is for caller
		// compatibility with the reference behavior.
		return d.fatal(ReasonDispatchFailure,
			zap.Int32("handle", int32(h)), zap.String("cause", "message pool exhausted"))
	}

	m.Op = types.OpCall
	m.Handle = h
	m.Service = conn.Service
	m.NSCaller = ns
	m.ClientID = conn.ClientID
	m.In = in
	m.Out = out
	m.OutOrig = outBase

	if err := d.enqueue(conn.Service, m); err != nil {
		d.pool.Put(m)
		return d.fatal(ReasonDispatchFailure,
			zap.Int32("handle", int32(h)), zap.Error(err))
	}

	return types.StatusSuccess
}

// Close tears down a connection. The null handle is a deliberate no-op; any
// other dead handle terminates the caller. A failed enqueue is swallowed,
// matching the reference behavior.
func (d *Dispatcher) Close(h types.Handle, ns bool) {
	if h == types.NullHandle {
		return
	}

	conn := d.handles.Lookup(h)
	if conn == nil {
		d.fatal(ReasonInvalidHandle, zap.Int32("handle", int32(h)))
		return
	}

	m := d.pool.Get()
	if m == nil {
		d.log.Warn("close dropped: message pool exhausted",
			zap.Int32("handle", int32(h)))
		return
	}

	m.Op = types.OpDisconnect
	m.Handle = h
	m.Service = conn.Service
	m.NSCaller = ns
	m.ClientID = conn.ClientID

	if err := d.enqueue(conn.Service, m); err != nil {
		d.log.Warn("close enqueue failed",
			zap.Int32("handle", int32(h)), zap.Error(err))
		d.pool.Put(m)
	}
}

func (d *Dispatcher) enqueue(svc *registry.Descriptor, m *message.Msg) error {
	if err := d.sched.Enqueue(svc, m); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.RecordDispatch(m.Op.String())
		d.metrics.PoolInUse.Set(float64(d.pool.InUse()))
	}
	return nil
}

// fatal records the violation and hands control to the trap. The trap does
// not return; the return value only satisfies the compiler on paths the
// production build never continues past.
func (d *Dispatcher) fatal(reason string, fields ...zap.Field) types.Status {
	if d.metrics != nil {
		d.metrics.RecordTermination(reason)
	}
	d.trap.Fatal(reason, fields...)
	return types.StatusError
}
