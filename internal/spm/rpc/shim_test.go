package rpc

import (
	"testing"

	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
	"github.com/sentinelos/dispatch/internal/spm/boundary"
	"github.com/sentinelos/dispatch/internal/spm/client"
	"github.com/sentinelos/dispatch/internal/spm/handle"
	"github.com/sentinelos/dispatch/internal/spm/message"
	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

type panicTrap struct{}

func (panicTrap) Fatal(reason string, _ ...zap.Field) {
	panic("trap: " + reason)
}

type dropSched struct{}

func (dropSched) Enqueue(_ *registry.Descriptor, _ *message.Msg) error { return nil }

func newShim(t *testing.T) *Shim {
	t.Helper()

	reg := registry.New()
	if err := reg.Register(registry.Descriptor{
		SID: 259, Name: "crypto", MinorVersion: 1,
		Policy: types.PolicyRelaxed, NonSecureClients: true, Partition: "crypto",
	}); err != nil {
		t.Fatal(err)
	}
	reg.Seal()

	layout := &boundary.Layout{NonSecure: []boundary.Window{{Base: 0, Len: 4096}}}
	space := boundary.NewSimSpace(4096, layout)

	tr := panicTrap{}
	d := client.New(reg, handle.NewTable(), boundary.NewValidator(space),
		message.NewPool(4), dropSched{}, tr, logging.NewNop())
	return NewShim(d, tr)
}

func TestShimFrameworkVersion(t *testing.T) {
	s := newShim(t)
	if v := s.FrameworkVersion(); v != types.FrameworkVersion {
		t.Errorf("FrameworkVersion = %#x, want %#x", v, types.FrameworkVersion)
	}
}

func TestShimVersionPassThrough(t *testing.T) {
	s := newShim(t)

	if v := s.Version(&ClientParams{SID: 259}, true); v != 1 {
		t.Errorf("Version(259) = %d, want 1", v)
	}
	if v := s.Version(&ClientParams{SID: 999}, true); v != types.VersionNone {
		t.Errorf("Version(999) = %d, want none sentinel", v)
	}
}

func TestShimConnectPassThrough(t *testing.T) {
	s := newShim(t)

	if st := s.Connect(&ClientParams{SID: 259, Version: 1}, true); st != types.StatusSuccess {
		t.Errorf("Connect = %v, want success", st)
	}
}

func TestShimNilParamsTrap(t *testing.T) {
	s := newShim(t)

	for _, op := range []func(){
		func() { s.Version(nil, true) },
		func() { s.Connect(nil, true) },
		func() { s.Call(nil, true) },
		func() { s.Close(nil, true) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Error("nil params must trip the trap")
				}
			}()
			op()
		}()
	}
}
