package boundary

import "fmt"

// Window is one contiguous permitted address range.
type Window struct {
	Base uint64
	Len  uint64
}

// Contains reports whether [base, base+length) lies entirely inside the
// window. Zero-length regions are contained if their base is.
func (w Window) Contains(base, length uint64) bool {
	end := base + length
	if end < base {
		// wrapped
		return false
	}
	return base >= w.Base && end <= w.Base+w.Len
}

// Layout is the static permitted-window table for both trust levels.
// Secure callers may touch both sets; non-secure callers only the
// non-secure windows.
type Layout struct {
	Secure    []Window
	NonSecure []Window
}

// Permits reports whether the region is accessible at the given trust level.
func (l *Layout) Permits(base, length uint64, ns bool) bool {
	for _, w := range l.NonSecure {
		if w.Contains(base, length) {
			return true
		}
	}
	if ns {
		return false
	}
	for _, w := range l.Secure {
		if w.Contains(base, length) {
			return true
		}
	}
	return false
}

// CheckAccess implements the region-permission half of Space.
func (l *Layout) CheckAccess(base, length uint64, ns bool) error {
	if !l.Permits(base, length, ns) {
		return fmt.Errorf("%w: [%#x, +%d) ns=%v", ErrAccessDenied, base, length, ns)
	}
	return nil
}
