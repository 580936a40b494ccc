// Package types defines the shared vocabulary of the dispatch core.
//
// Status codes, handles, operation kinds, and I/O vector descriptors are
// declared here so the core packages can exchange them without import
// cycles. Everything in this package is plain data; no behavior beyond
// String helpers.
package types
