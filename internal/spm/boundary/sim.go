package boundary

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// SimSpace is a flat simulated address space with a permission layout in
// front of it. Addresses are byte offsets into the backing array. It backs
// the in-process mailbox and the test harness; a hardware port would
// implement Space against real caller memory instead.
type SimSpace struct {
	mu     sync.Mutex
	mem    []byte
	layout *Layout
}

// NewSimSpace creates a simulated space of the given size governed by the
// given layout.
func NewSimSpace(size int, layout *Layout) *SimSpace {
	return &SimSpace{
		mem:    make([]byte, size),
		layout: layout,
	}
}

// Size returns the backing memory size in bytes.
func (s *SimSpace) Size() int {
	return len(s.mem)
}

// CheckAccess implements Space.
func (s *SimSpace) CheckAccess(base, length uint64, ns bool) error {
	return s.layout.CheckAccess(base, length, ns)
}

// ReadInVecs implements Space. The returned slice is owned by the caller of
// this method, not by the simulated client.
func (s *SimSpace) ReadInVecs(base uint64, n int) ([]types.InVec, error) {
	raw, err := s.ReadBytes(base, uint64(n)*types.VecSize)
	if err != nil {
		return nil, err
	}

	vecs := make([]types.InVec, n)
	for i := range vecs {
		vecs[i].Base = binary.LittleEndian.Uint64(raw[i*types.VecSize:])
		vecs[i].Len = binary.LittleEndian.Uint64(raw[i*types.VecSize+8:])
	}
	return vecs, nil
}

// ReadOutVecs implements Space.
func (s *SimSpace) ReadOutVecs(base uint64, n int) ([]types.OutVec, error) {
	raw, err := s.ReadBytes(base, uint64(n)*types.VecSize)
	if err != nil {
		return nil, err
	}

	vecs := make([]types.OutVec, n)
	for i := range vecs {
		vecs[i].Base = binary.LittleEndian.Uint64(raw[i*types.VecSize:])
		vecs[i].Len = binary.LittleEndian.Uint64(raw[i*types.VecSize+8:])
	}
	return vecs, nil
}

// WriteInVecs lays out input vector descriptors at base, the way a client
// runtime would before issuing a call.
func (s *SimSpace) WriteInVecs(base uint64, vecs []types.InVec) error {
	raw := make([]byte, len(vecs)*types.VecSize)
	for i, v := range vecs {
		binary.LittleEndian.PutUint64(raw[i*types.VecSize:], v.Base)
		binary.LittleEndian.PutUint64(raw[i*types.VecSize+8:], v.Len)
	}
	return s.WriteBytes(base, raw)
}

// WriteOutVecs lays out output vector descriptors at base.
func (s *SimSpace) WriteOutVecs(base uint64, vecs []types.OutVec) error {
	raw := make([]byte, len(vecs)*types.VecSize)
	for i, v := range vecs {
		binary.LittleEndian.PutUint64(raw[i*types.VecSize:], v.Base)
		binary.LittleEndian.PutUint64(raw[i*types.VecSize+8:], v.Len)
	}
	return s.WriteBytes(base, raw)
}

// WriteOutVecLen writes the actual byte count back into the Len field of
// the idx-th output vector of the array at base. This is the result
// write-back to the original caller location retained at call time.
func (s *SimSpace) WriteOutVecLen(base uint64, idx int, n uint64) error {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint64(raw, n)
	return s.WriteBytes(base+uint64(idx)*types.VecSize+8, raw)
}

// ReadBytes copies length bytes starting at base out of the simulated
// memory.
func (s *SimSpace) ReadBytes(base, length uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bounds(base, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, s.mem[base:base+length])
	return out, nil
}

// WriteBytes copies data into the simulated memory at base.
func (s *SimSpace) WriteBytes(base uint64, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.bounds(base, uint64(len(data))); err != nil {
		return err
	}
	copy(s.mem[base:], data)
	return nil
}

func (s *SimSpace) bounds(base, length uint64) error {
	if base+length < base || base+length > uint64(len(s.mem)) {
		return fmt.Errorf("simulated memory access out of range: [%#x, +%d)", base, length)
	}
	return nil
}
