// Package registry holds the RoT service table.
//
// Services are registered once at system init and sealed before the first
// client call; every lookup after that is read-only. Version compatibility
// is decided here so connect-time policy enforcement has a single source
// of truth.
package registry
