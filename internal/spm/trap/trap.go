// Package trap provides the terminal failure primitive for trust-boundary
// violations.
//
// A trust violation is never surfaced as an error return: the offending
// execution context is terminated and the caller observes nothing. Fatal
// implementations must not return.
package trap

import (
	"go.uber.org/zap"

	"github.com/sentinelos/dispatch/internal/infrastructure/logging"
)

// Trap terminates the offending execution context. Implementations must
// not return from Fatal; converting a trust violation into a recoverable
// error defeats the security model.
type Trap interface {
	Fatal(reason string, fields ...zap.Field)
}

// Process aborts the whole process through the logger's fatal path. This is
// the production trap: on a single-image platform the dispatch core and the
// offending context share a fate.
type Process struct {
	log *logging.Logger
}

// NewProcess creates a process-aborting trap.
func NewProcess(log *logging.Logger) *Process {
	return &Process{log: log}
}

// Fatal implements Trap. zap's Fatal exits the process; it does not return.
func (p *Process) Fatal(reason string, fields ...zap.Field) {
	p.log.Fatal("trust boundary violation: "+reason, fields...)
}
