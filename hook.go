package dynamicinterval

import (
	"time"
)

type (
	// Host models the timer facility a dynamic interval is built upon.
	// Implementations must never call fn synchronously, from within
	// SetTimeout. Loop is the provided implementation.
	Host interface {
		// SetTimeout arms a one-shot timer, which calls fn after at least d.
		SetTimeout(fn func(), d time.Duration) TimerID

		// ClearTimeout cancels a timer armed by SetTimeout. It must be a
		// no-op if the timer has already fired, or been cancelled.
		ClearTimeout(id TimerID)
	}

	// TimerID is an opaque identifier for a timer armed via a Host.
	TimerID uint64

	// Callback is invoked on each tick of a dynamic interval, with the extra
	// arguments provided to New or Set.
	Callback func(args ...any)

	// PanicHandler receives values recovered from panicking timer callbacks,
	// run by a Loop, along with the stack at the point of the panic.
	PanicHandler func(value any, stack []byte)
)

func (x Callback) call(args []any) {
	if x != nil {
		x(args...)
	}
}
