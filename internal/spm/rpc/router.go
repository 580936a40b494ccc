package rpc

import (
	"sync"

	"github.com/sentinelos/dispatch/internal/spm/types"
)

// Binding is one transport's view of the routing shim: HandleRequest is
// poked when a generic request is ready for processing, Reply delivers a
// completed request's status to its owner.
type Binding interface {
	HandleRequest()
	Reply(owner any, status int32)
}

// noopBinding is the inert default installed while no transport is
// registered. Both entry points are safe no-ops.
type noopBinding struct{}

func (noopBinding) HandleRequest()             {}
func (noopBinding) Reply(owner any, ret int32) {}

// Router owns the single transport binding slot. Its lifecycle is a small
// state machine: Unregistered -> Registered -> Unregistered. Registering
// over a live binding is a conflict, never a silent overwrite.
type Router struct {
	mu         sync.Mutex
	binding    Binding
	registered bool
}

// NewRouter creates a router with the inert default binding installed.
func NewRouter() *Router {
	return &Router{binding: noopBinding{}}
}

// Register installs a transport binding. A nil binding is an invalid
// parameter; a second registration without an intervening Unregister is a
// conflict.
func (r *Router) Register(b Binding) types.Status {
	if b == nil {
		return types.StatusInvalidParam
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.registered {
		return types.StatusConflict
	}
	r.binding = b
	r.registered = true
	return types.StatusSuccess
}

// Unregister resets to the inert default binding. It always succeeds.
func (r *Router) Unregister() {
	r.mu.Lock()
	r.binding = noopBinding{}
	r.registered = false
	r.mu.Unlock()
}

// Registered reports whether a transport binding is installed.
func (r *Router) Registered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registered
}

// HandleRequest signals the registered transport that a generic request is
// ready for processing.
func (r *Router) HandleRequest() {
	r.current().HandleRequest()
}

// Reply delivers a completed request's status to its owner through the
// registered transport.
func (r *Router) Reply(owner any, status int32) {
	r.current().Reply(owner, status)
}

func (r *Router) current() Binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.binding
}
