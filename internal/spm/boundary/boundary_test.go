package boundary

import (
	"bytes"
	"testing"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

func testLayout() *Layout {
	return &Layout{
		NonSecure: []Window{{Base: 0, Len: 4096}},
		Secure:    []Window{{Base: 4096, Len: 4096}},
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Base: 0x1000, Len: 0x100}

	tests := []struct {
		name   string
		base   uint64
		length uint64
		want   bool
	}{
		{"fully inside", 0x1010, 0x10, true},
		{"exact fit", 0x1000, 0x100, true},
		{"starts before", 0xfff, 0x10, false},
		{"ends after", 0x10f0, 0x20, false},
		{"zero length at base", 0x1000, 0, true},
		{"address wrap", ^uint64(0) - 4, 16, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.base, tt.length); got != tt.want {
				t.Errorf("Contains(%#x, %d) = %v, want %v", tt.base, tt.length, got, tt.want)
			}
		})
	}
}

func TestLayoutTrustLevels(t *testing.T) {
	l := testLayout()

	// Non-secure callers see only the non-secure window.
	if err := l.CheckAccess(0x100, 16, true); err != nil {
		t.Errorf("ns access to ns window should pass: %v", err)
	}
	if err := l.CheckAccess(0x1100, 16, true); err == nil {
		t.Error("ns access to secure window must fail")
	}

	// Secure callers see both.
	if err := l.CheckAccess(0x100, 16, false); err != nil {
		t.Errorf("secure access to ns window should pass: %v", err)
	}
	if err := l.CheckAccess(0x1100, 16, false); err != nil {
		t.Errorf("secure access to secure window should pass: %v", err)
	}

	// Nobody sees past the windows.
	if err := l.CheckAccess(0x3000, 16, false); err == nil {
		t.Error("unmapped region must fail for every trust level")
	}
}

func TestSimSpaceVecRoundTrip(t *testing.T) {
	s := NewSimSpace(8192, testLayout())

	in := []types.InVec{
		{Base: 0x100, Len: 32},
		{Base: 0x200, Len: 0},
		{Base: 0x300, Len: 117},
	}
	if err := s.WriteInVecs(0x800, in); err != nil {
		t.Fatalf("WriteInVecs failed: %v", err)
	}

	got, err := s.ReadInVecs(0x800, len(in))
	if err != nil {
		t.Fatalf("ReadInVecs failed: %v", err)
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("vec %d = %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestSimSpaceOutVecLenWriteBack(t *testing.T) {
	s := NewSimSpace(8192, testLayout())

	out := []types.OutVec{{Base: 0x100, Len: 64}, {Base: 0x200, Len: 64}}
	if err := s.WriteOutVecs(0x900, out); err != nil {
		t.Fatalf("WriteOutVecs failed: %v", err)
	}
	if err := s.WriteOutVecLen(0x900, 1, 17); err != nil {
		t.Fatalf("WriteOutVecLen failed: %v", err)
	}

	got, err := s.ReadOutVecs(0x900, 2)
	if err != nil {
		t.Fatalf("ReadOutVecs failed: %v", err)
	}
	if got[0].Len != 64 {
		t.Errorf("vec 0 len = %d, want untouched 64", got[0].Len)
	}
	if got[1].Len != 17 {
		t.Errorf("vec 1 len = %d, want written-back 17", got[1].Len)
	}
	if got[1].Base != 0x200 {
		t.Errorf("vec 1 base = %#x, want untouched 0x200", got[1].Base)
	}
}

func TestSimSpaceBytes(t *testing.T) {
	s := NewSimSpace(8192, testLayout())

	payload := []byte("cross boundary payload")
	if err := s.WriteBytes(0x400, payload); err != nil {
		t.Fatalf("WriteBytes failed: %v", err)
	}

	got, err := s.ReadBytes(0x400, uint64(len(payload)))
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("ReadBytes = %q, want %q", got, payload)
	}

	if _, err := s.ReadBytes(8190, 16); err == nil {
		t.Error("out-of-range read should fail")
	}
}

// access records one CheckAccess consultation.
type access struct {
	base uint64
	len  uint64
}

// recordingSpace wraps a Space and records every region check in order.
type recordingSpace struct {
	inner  Space
	checks []access
}

func (r *recordingSpace) CheckAccess(base, length uint64, ns bool) error {
	r.checks = append(r.checks, access{base, length})
	return r.inner.CheckAccess(base, length, ns)
}

func (r *recordingSpace) ReadInVecs(base uint64, n int) ([]types.InVec, error) {
	return r.inner.ReadInVecs(base, n)
}

func (r *recordingSpace) ReadOutVecs(base uint64, n int) ([]types.OutVec, error) {
	return r.inner.ReadOutVecs(base, n)
}

func TestValidatorCheckOrderStopsAtFirstViolation(t *testing.T) {
	sim := NewSimSpace(8192, testLayout())
	rec := &recordingSpace{inner: sim}
	v := NewValidator(rec)

	in := []types.InVec{
		{Base: 0x100, Len: 16},
		{Base: 0x200, Len: 16},
		{Base: 0x1100, Len: 16}, // secure region: violation for ns caller
	}
	out := []types.OutVec{{Base: 0x300, Len: 16}}

	if err := v.CheckRegions(in, out, true); err == nil {
		t.Fatal("third input vector must fail validation")
	}

	want := []access{
		{0x100, 16},
		{0x200, 16},
		{0x1100, 16},
	}
	if len(rec.checks) != len(want) {
		t.Fatalf("checked %d regions, want %d (no output buffer may be touched)", len(rec.checks), len(want))
	}
	for i := range want {
		if rec.checks[i] != want[i] {
			t.Errorf("check %d = %+v, want %+v", i, rec.checks[i], want[i])
		}
	}
}

func TestValidatorArraysBeforeRegions(t *testing.T) {
	sim := NewSimSpace(8192, testLayout())
	rec := &recordingSpace{inner: sim}
	v := NewValidator(rec)

	if err := v.CheckVecArrays(0x800, 2, 0x900, 1, true); err != nil {
		t.Fatalf("arrays in ns window should pass: %v", err)
	}
	want := []access{
		{0x800, 2 * types.VecSize},
		{0x900, 1 * types.VecSize},
	}
	for i := range want {
		if rec.checks[i] != want[i] {
			t.Errorf("check %d = %+v, want %+v", i, rec.checks[i], want[i])
		}
	}

	// Arrays in the secure window fail for an ns caller.
	if err := v.CheckVecArrays(0x1100, 1, 0, 0, true); err == nil {
		t.Error("descriptor array in secure window must fail for ns caller")
	}
}

func TestValidatorZeroLengthArraysSkipChecks(t *testing.T) {
	sim := NewSimSpace(8192, testLayout())
	rec := &recordingSpace{inner: sim}
	v := NewValidator(rec)

	if err := v.CheckVecArrays(0, 0, 0, 0, true); err != nil {
		t.Fatalf("empty arrays should pass: %v", err)
	}
	if len(rec.checks) != 0 {
		t.Errorf("empty arrays consulted the oracle %d times", len(rec.checks))
	}
}
