package registry

import (
	"fmt"
	"sync"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Descriptor is the immutable metadata of one RoT service. Descriptors are
// registered during system init and read-only for the rest of the system
// lifetime.
type Descriptor struct {
	SID              types.SID
	Name             string
	MinorVersion     uint32
	Policy           types.VersionPolicy
	NonSecureClients bool
	Partition        string
}

// Registry resolves service identifiers to descriptors. It is an explicitly
// owned table handed to the dispatcher, never ambient global state. After
// Seal it is lookup-only.
type Registry struct {
	mu       sync.RWMutex
	services map[types.SID]*Descriptor
	sealed   bool
}

// New creates an empty service registry.
func New() *Registry {
	return &Registry{
		services: make(map[types.SID]*Descriptor),
	}
}

// Register adds a service descriptor. It fails on duplicate SIDs and after
// the registry has been sealed.
func (r *Registry) Register(d Descriptor) error {
	if d.SID == 0 {
		return fmt.Errorf("service SID cannot be zero")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("registry is sealed: cannot register service %#x", uint32(d.SID))
	}
	if _, exists := r.services[d.SID]; exists {
		return fmt.Errorf("service %#x already registered", uint32(d.SID))
	}

	r.services[d.SID] = &d
	return nil
}

// Seal freezes the registry. Registration after Seal is an error; lookups
// remain available.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// BySID returns the descriptor for a service identifier, or nil when the
// service does not exist on this platform.
func (r *Registry) BySID(sid types.SID) *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.services[sid]
}

// List returns a snapshot of all registered descriptors.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.services))
	for _, d := range r.services {
		out = append(out, *d)
	}
	return out
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

// CheckVersion reports whether a requested minor version is compatible with
// the service's declared version policy.
func CheckVersion(d *Descriptor, minor uint32) bool {
	switch d.Policy {
	case types.PolicyStrict:
		return minor == d.MinorVersion
	case types.PolicyRelaxed:
		return minor <= d.MinorVersion
	default:
		return false
	}
}
