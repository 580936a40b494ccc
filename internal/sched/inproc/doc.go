// Package inproc is the reference transport and scheduler collaborator.
//
// The dispatch core hands requests off through exactly two seams: the
// scheduler's Enqueue and the routing shim's Reply. This package implements
// both sides in-process so the system runs without a second core: Mailbox
// drains per-partition bounded queues and executes service behavior against
// the simulated address space; Completion is the registered rpc binding
// that releases message records and fans replies out to subscribers.
//
// Nothing in here is part of the trust core. A hardware port replaces this
// package with the real cross-core mailbox at the same two seams.
package inproc
