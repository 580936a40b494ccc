// Package rpc is the request/reply routing shim between the dispatch core
// and whichever transport delivers requests to partitions and replies back
// to callers.
//
// Exactly one transport binding may be registered at a time; the Router
// enforces the Unregistered -> Registered -> Unregistered lifecycle with
// conflict detection instead of silent overwrite. When nothing is
// registered, both pass-through entry points fall back to an inert no-op
// binding. The Shim adapts flattened transport parameter records onto the
// client surface.
package rpc
