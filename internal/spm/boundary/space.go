package boundary

import (
	"errors"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// ErrAccessDenied is returned when a memory region is not fully inside the
// caller's permitted address space.
var ErrAccessDenied = errors.New("memory region outside caller's permitted space")

// Space is the only point where platform memory-protection knowledge is
// consulted, and the only way the dispatch core touches caller memory.
//
// ReadInVecs and ReadOutVecs decode vector descriptor arrays from caller
// memory into slices owned by the dispatcher. Reading through this interface
// is the non-bypassable copy: once the slices are returned, a concurrent
// writer in the caller's address space can no longer influence what gets
// validated and used.
type Space interface {
	// CheckAccess reports whether [base, base+length) lies entirely inside
	// the address space permitted to the caller's trust level.
	CheckAccess(base, length uint64, ns bool) error

	// ReadInVecs copies n input vector descriptors starting at base.
	ReadInVecs(base uint64, n int) ([]types.InVec, error)

	// ReadOutVecs copies n output vector descriptors starting at base.
	ReadOutVecs(base uint64, n int) ([]types.OutVec, error)
}
