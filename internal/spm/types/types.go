package types

// FrameworkVersion is the IPC framework version reported to every caller.
// Major version in the high byte, minor in the low byte.
const FrameworkVersion uint32 = 0x0100

// VersionNone is returned by version queries when the service is unknown
// or the caller is not authorized to see it. The two cases are deliberately
// indistinguishable.
const VersionNone uint32 = 0

// MaxIOVec is the platform-fixed maximum combined input+output vector count
// for a single call.
const MaxIOVec = 4

// VecSize is the wire size of one I/O vector descriptor (base + length,
// both 64-bit) as laid out in caller memory.
const VecSize = 16

// SID identifies a RoT service.
type SID uint32

// Handle is an opaque per-connection identifier handed to clients.
type Handle int32

// NullHandle means "no connection". It is never stored in the handle table.
const NullHandle Handle = 0

// Status is the result code surfaced across the client boundary. Anything
// not representable here is a trust violation and terminates the caller
// instead of returning.
type Status int32

const (
	StatusSuccess      Status = 0
	StatusError        Status = -1
	StatusBusy         Status = -2
	StatusInvalidParam Status = -3
	StatusConflict     Status = -4
)

// String returns the canonical name of a status code.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusBusy:
		return "busy"
	case StatusInvalidParam:
		return "invalid-param"
	case StatusConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Op is the kind of request carried by a dispatched message.
type Op int32

const (
	OpConnect Op = iota
	OpCall
	OpDisconnect
)

// String returns the canonical name of an operation kind.
func (o Op) String() string {
	switch o {
	case OpConnect:
		return "connect"
	case OpCall:
		return "call"
	case OpDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// VersionPolicy declares how a service matches requested minor versions.
type VersionPolicy int32

const (
	// PolicyStrict accepts only an exact minor version match.
	PolicyStrict VersionPolicy = iota
	// PolicyRelaxed accepts any requested minor version not newer than the
	// one the service implements.
	PolicyRelaxed
)

// InVec describes one input buffer in caller memory.
type InVec struct {
	Base uint64
	Len  uint64
}

// OutVec describes one output buffer in caller memory. Len is updated to
// the number of bytes actually written when the call completes.
type OutVec struct {
	Base uint64
	Len  uint64
}
