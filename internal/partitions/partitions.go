// Package partitions holds the built-in RoT service implementations that
// run inside the in-process mailbox.
package partitions

import (
	"crypto/sha256"
	"sync"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Well-known service identifiers.
const (
	SIDStorage types.SID = 257
	SIDCrypto  types.SID = 259
)

// Storage is a secure-only internal trusted storage service. Input vector 0
// carries the key; input vector 1, when present, carries a value to store.
// Output vector 0, when present, receives the value under the key.
type Storage struct {
	mu    sync.Mutex
	items map[string][]byte
}

// NewStorage creates an empty store.
func NewStorage() *Storage {
	return &Storage{items: make(map[string][]byte)}
}

// Connect refuses non-secure callers. The dispatcher already terminates
// unauthorized connects; this is the partition's own line of defense.
func (s *Storage) Connect(ns bool) bool {
	return !ns
}

// Call stores and/or retrieves a value.
func (s *Storage) Call(in [][]byte, out [][]byte) ([]int, int32) {
	if len(in) == 0 {
		return nil, int32(types.StatusInvalidParam)
	}
	key := string(in[0])

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(in) > 1 {
		stored := make([]byte, len(in[1]))
		copy(stored, in[1])
		s.items[key] = stored
	}

	written := make([]int, len(out))
	if len(out) > 0 {
		if value, ok := s.items[key]; ok {
			written[0] = copy(out[0], value)
		}
	}
	return written, int32(types.StatusSuccess)
}

// Disconnect implements inproc.Service.
func (s *Storage) Disconnect() {}

// Crypto is a digest service open to non-secure callers. It hashes the
// concatenation of all input vectors into output vector 0.
type Crypto struct{}

// NewCrypto creates the digest service.
func NewCrypto() *Crypto {
	return &Crypto{}
}

// Connect accepts every caller.
func (c *Crypto) Connect(ns bool) bool {
	return true
}

// Call computes a SHA-256 digest of the inputs.
func (c *Crypto) Call(in [][]byte, out [][]byte) ([]int, int32) {
	h := sha256.New()
	for _, buf := range in {
		h.Write(buf)
	}

	written := make([]int, len(out))
	if len(out) > 0 {
		written[0] = copy(out[0], h.Sum(nil))
	}
	return written, int32(types.StatusSuccess)
}

// Disconnect implements inproc.Service.
func (c *Crypto) Disconnect() {}
