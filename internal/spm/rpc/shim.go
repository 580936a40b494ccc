package rpc

import (
	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/spm/client"
	"github.com/sentinelos/dispatch/internal/spm/trap"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

// ClientParams is the flattened parameter record a transport hands across
// for one client operation.
type ClientParams struct {
	SID     types.SID
	Version uint32
	Handle  types.Handle
	InBase  uint64
	InLen   int
	OutBase uint64
	OutLen  int
}

// Shim adapts transport-delivered parameter records onto the dispatch
// core's client surface. A nil record is a transport bug, not client input,
// and trips the trap.
type Shim struct {
	dispatcher *client.Dispatcher
	trap       trap.Trap
}

// NewShim creates the transport-facing pass-through layer.
func NewShim(d *client.Dispatcher, tr trap.Trap) *Shim {
	return &Shim{dispatcher: d, trap: tr}
}

// FrameworkVersion passes through the framework version query.
func (s *Shim) FrameworkVersion() uint32 {
	return s.dispatcher.FrameworkVersion()
}

// Version passes through a service version query.
func (s *Shim) Version(p *ClientParams, ns bool) uint32 {
	s.mustParams(p, "version")
	return s.dispatcher.Version(p.SID, ns)
}

// Connect passes through a connect operation.
func (s *Shim) Connect(p *ClientParams, ns bool) types.Status {
	s.mustParams(p, "connect")
	return s.dispatcher.Connect(p.SID, p.Version, ns)
}

// Call passes through a call operation.
func (s *Shim) Call(p *ClientParams, ns bool) types.Status {
	s.mustParams(p, "call")
	return s.dispatcher.Call(p.Handle, p.InBase, p.InLen, p.OutBase, p.OutLen, ns)
}

// Close passes through a close operation.
func (s *Shim) Close(p *ClientParams, ns bool) {
	s.mustParams(p, "close")
	s.dispatcher.Close(p.Handle, ns)
}

func (s *Shim) mustParams(p *ClientParams, op string) {
	if p == nil {
		s.trap.Fatal("nil client params from transport", zap.String("op", op))
	}
}
