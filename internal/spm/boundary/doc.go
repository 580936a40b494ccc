// Package boundary validates cross-boundary memory references.
//
// Every buffer a client hands to the dispatcher is described by (base,
// length) pairs in the caller's own address space. This package owns the
// copy-then-validate discipline applied to those descriptors and the Space
// abstraction behind which all platform memory-protection knowledge lives.
//
// Components:
//   - Space: permission oracle plus the only read path into caller memory
//   - Layout: static permitted-window table per trust level
//   - SimSpace: simulated flat memory used by the in-process mailbox and tests
//   - Validator: fixed-order array check, copy, then per-region checks
package boundary
