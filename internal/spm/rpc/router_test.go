package rpc

import (
	"testing"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

type stubBinding struct {
	handled int
	replies []struct {
		owner  any
		status int32
	}
}

func (s *stubBinding) HandleRequest() {
	s.handled++
}

func (s *stubBinding) Reply(owner any, status int32) {
	s.replies = append(s.replies, struct {
		owner  any
		status int32
	}{owner, status})
}

func TestRegisterNilIsInvalidParam(t *testing.T) {
	r := NewRouter()
	if st := r.Register(nil); st != types.StatusInvalidParam {
		t.Errorf("Register(nil) = %v, want invalid-param", st)
	}
	if r.Registered() {
		t.Error("router must stay unregistered after invalid registration")
	}
}

func TestRegisterConflict(t *testing.T) {
	r := NewRouter()

	if st := r.Register(&stubBinding{}); st != types.StatusSuccess {
		t.Fatalf("first Register = %v, want success", st)
	}

	// Both attempts conflict, both times.
	if st := r.Register(&stubBinding{}); st != types.StatusConflict {
		t.Errorf("second Register = %v, want conflict", st)
	}
	if st := r.Register(&stubBinding{}); st != types.StatusConflict {
		t.Errorf("third Register = %v, want conflict", st)
	}
}

func TestUnregisterAllowsFreshRegistration(t *testing.T) {
	r := NewRouter()
	r.Register(&stubBinding{})
	r.Unregister()

	if r.Registered() {
		t.Error("Unregister must clear the binding slot")
	}
	if st := r.Register(&stubBinding{}); st != types.StatusSuccess {
		t.Errorf("Register after Unregister = %v, want success", st)
	}
}

func TestUnregisterWithoutBindingIsSafe(t *testing.T) {
	r := NewRouter()
	r.Unregister()
	r.Unregister()
}

func TestEntryPointsAreSafeNoOpsWhenUnregistered(t *testing.T) {
	r := NewRouter()

	// Must not panic.
	r.HandleRequest()
	r.Reply("owner", 0)
}

func TestEntryPointsDelegate(t *testing.T) {
	r := NewRouter()
	b := &stubBinding{}
	r.Register(b)

	r.HandleRequest()
	r.HandleRequest()
	if b.handled != 2 {
		t.Errorf("handled = %d, want 2", b.handled)
	}

	owner := &struct{ id int }{id: 7}
	r.Reply(owner, -3)
	if len(b.replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(b.replies))
	}
	if b.replies[0].owner != owner || b.replies[0].status != -3 {
		t.Errorf("reply = %+v, want owner/-3", b.replies[0])
	}
}

func TestDelegationStopsAfterUnregister(t *testing.T) {
	r := NewRouter()
	b := &stubBinding{}
	r.Register(b)
	r.Unregister()

	r.HandleRequest()
	r.Reply("owner", 1)

	if b.handled != 0 || len(b.replies) != 0 {
		t.Error("unregistered binding must not receive deliveries")
	}
}
