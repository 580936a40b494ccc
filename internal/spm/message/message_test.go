package message

import (
	"testing"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

func TestPoolExhaustion(t *testing.T) {
	p := NewPool(2)

	a := p.Get()
	b := p.Get()
	if a == nil || b == nil {
		t.Fatal("pool should serve up to capacity")
	}
	if p.Get() != nil {
		t.Error("exhausted pool must return nil, not block or panic")
	}
	if p.InUse() != 2 {
		t.Errorf("InUse = %d, want 2", p.InUse())
	}

	p.Put(a)
	if p.Get() == nil {
		t.Error("released record should be allocatable again")
	}
}

func TestGetResetsRecord(t *testing.T) {
	p := NewPool(1)

	m := p.Get()
	m.Op = types.OpCall
	m.Handle = 7
	m.In = []types.InVec{{Base: 1, Len: 2}}
	firstID := m.ID
	p.Put(m)

	m = p.Get()
	if m.Op != types.OpConnect || m.Handle != types.NullHandle || m.In != nil {
		t.Errorf("recycled record not reset: %+v", m)
	}
	if m.ID == "" || m.ID == firstID {
		t.Error("recycled record should get a fresh ID")
	}
}

func TestPutNilIsSafe(t *testing.T) {
	p := NewPool(1)
	p.Put(nil)
	if p.InUse() != 0 {
		t.Errorf("InUse = %d, want 0", p.InUse())
	}
}
