package boundary

import (
	"fmt"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Validator enforces the cross-boundary buffer discipline for one call:
// check the descriptor arrays, copy them out of caller memory, then check
// every copied region. The order is a hard invariant, not an optimization:
// validating the copy (and only ever using the copy) defeats
// check-then-use tampering by a concurrent writer in the caller's address
// space.
type Validator struct {
	space Space
}

// NewValidator creates a validator over the given address space.
func NewValidator(space Space) *Validator {
	return &Validator{space: space}
}

// Space returns the underlying address space.
func (v *Validator) Space() Space {
	return v.space
}

// CheckVecArrays validates that the vector descriptor arrays themselves,
// not yet their pointees, lie inside the caller's permitted space.
func (v *Validator) CheckVecArrays(inBase uint64, inLen int, outBase uint64, outLen int, ns bool) error {
	if inLen > 0 {
		if err := v.space.CheckAccess(inBase, uint64(inLen)*types.VecSize, ns); err != nil {
			return fmt.Errorf("input vector array: %w", err)
		}
	}
	if outLen > 0 {
		if err := v.space.CheckAccess(outBase, uint64(outLen)*types.VecSize, ns); err != nil {
			return fmt.Errorf("output vector array: %w", err)
		}
	}
	return nil
}

// CopyVecs reads both descriptor arrays into dispatcher-owned memory.
// CheckVecArrays must have passed first.
func (v *Validator) CopyVecs(inBase uint64, inLen int, outBase uint64, outLen int) ([]types.InVec, []types.OutVec, error) {
	in, err := v.space.ReadInVecs(inBase, inLen)
	if err != nil {
		return nil, nil, fmt.Errorf("copying input vectors: %w", err)
	}
	out, err := v.space.ReadOutVecs(outBase, outLen)
	if err != nil {
		return nil, nil, fmt.Errorf("copying output vectors: %w", err)
	}
	return in, out, nil
}

// CheckRegions validates every referenced buffer region in the copied
// arrays: each input in order, then each output in order. The first
// violation stops the walk.
func (v *Validator) CheckRegions(in []types.InVec, out []types.OutVec, ns bool) error {
	for i, vec := range in {
		if err := v.space.CheckAccess(vec.Base, vec.Len, ns); err != nil {
			return fmt.Errorf("input vector %d: %w", i, err)
		}
	}
	for i, vec := range out {
		if err := v.space.CheckAccess(vec.Base, vec.Len, ns); err != nil {
			return fmt.Errorf("output vector %d: %w", i, err)
		}
	}
	return nil
}
