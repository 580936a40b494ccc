// Package nspm models non-secure-side client identity.
//
// All non-secure callers share a single default client ID on this platform;
// secure callers are identified per partition by higher layers.
package nspm

// DefaultNSClientID identifies any non-secure caller.
const DefaultNSClientID int32 = -1

// SecureClientID identifies the secure-side caller context.
const SecureClientID int32 = 1

// ClientID returns the client identity for the given trust level.
func ClientID(ns bool) int32 {
	if ns {
		return DefaultNSClientID
	}
	return SecureClientID
}
