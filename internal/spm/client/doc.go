// Package client implements the client-call surface of the dispatch core.
//
// Four operations cross the trust boundary here: framework/service version
// queries, connect, call, and close. Each one walks its trust gates in a
// fixed order; a failed gate terminates the offending execution context
// through the trap instead of returning a status. The only recoverable
// outcomes a caller can observe are success, busy (connect under message
// exhaustion), and the version-none sentinel.
//
// Call validation order:
//  1. combined vector count against the platform maximum
//  2. handle liveness
//  3. the descriptor arrays' own memory regions
//  4. copy of both arrays out of caller memory
//  5. every copied input region, then every copied output region
//
// Only the copies are ever used past step 4.
package client
