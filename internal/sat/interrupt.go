package sat

import "sync/atomic"

// InterruptHandle is a cooperative cancellation flag (spec.md §5/§9). Unlike
// the original's process-global to-be-interrupted singleton, a handle is
// owned by whoever drives the solver (a CLI command, a portfolio worker) and
// passed in explicitly; a signal hook only ever calls Set.
type InterruptHandle struct {
	flag atomic.Bool
}

// NewInterruptHandle returns a fresh, unset handle.
func NewInterruptHandle() *InterruptHandle {
	return &InterruptHandle{}
}

// Set requests that the solver stop at its next safe point.
func (h *InterruptHandle) Set() {
	if h != nil {
		h.flag.Store(true)
	}
}

// Requested reports whether Set has been called.
func (h *InterruptHandle) Requested() bool {
	return h != nil && h.flag.Load()
}

// Reset clears the flag, allowing the handle to be reused across solves.
func (h *InterruptHandle) Reset() {
	if h != nil {
		h.flag.Store(false)
	}
}
