package handle

import (
	"testing"

	"github.com/sentinelos/dispatch/internal/spm/registry"
	"github.com/sentinelos/dispatch/internal/spm/types"
)

func testService() *registry.Descriptor {
	return &registry.Descriptor{SID: 259, Name: "crypto", Partition: "crypto"}
}

func TestOpenAndLookup(t *testing.T) {
	tbl := NewTable()

	h, err := tbl.Open(testService(), -1, true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if h == types.NullHandle {
		t.Fatal("Open must never return the null handle")
	}

	conn := tbl.Lookup(h)
	if conn == nil {
		t.Fatal("Lookup should find the live connection")
	}
	if conn.Service.SID != 259 || conn.ClientID != -1 || !conn.NSCaller {
		t.Errorf("connection fields lost: %+v", conn)
	}
}

func TestLookupNullHandle(t *testing.T) {
	tbl := NewTable()
	if conn := tbl.Lookup(types.NullHandle); conn != nil {
		t.Error("null handle must never resolve")
	}
}

func TestLookupDeadHandle(t *testing.T) {
	tbl := NewTable()
	if conn := tbl.Lookup(42); conn != nil {
		t.Error("never-issued handle must not resolve")
	}
}

func TestCloseDestroysOwnership(t *testing.T) {
	tbl := NewTable()
	h, _ := tbl.Open(testService(), 1, false)

	if !tbl.Close(h) {
		t.Fatal("closing a live handle should succeed")
	}
	if tbl.Close(h) {
		t.Error("second close of the same handle should report dead")
	}
	if conn := tbl.Lookup(h); conn != nil {
		t.Error("closed handle must not resolve")
	}
}

func TestOpenRejectsNilService(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.Open(nil, 1, false); err == nil {
		t.Error("Open(nil) should fail")
	}
}

func TestHandlesAreUnique(t *testing.T) {
	tbl := NewTable()
	seen := make(map[types.Handle]bool)

	for i := 0; i < 100; i++ {
		h, err := tbl.Open(testService(), 1, false)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if seen[h] {
			t.Fatalf("handle %d issued twice", h)
		}
		seen[h] = true
	}
	if tbl.Len() != 100 {
		t.Errorf("Len() = %d, want 100", tbl.Len())
	}
}
