// Package dynamicinterval implements a "dynamic interval": a single logical,
// cancellable interval, whose delay between ticks is computed fresh before
// every tick, from a delay source.
//
// A delay source may be a function, which is called prior to arming each
// timer, a finite sequence (slice or array) of values, which is consumed one
// value per tick, or any other value, which is used as a constant. Each value
// is coerced to a delay in milliseconds, see ToMillis. The interval stops
// itself the first time a delay is not a number, or is negative. A delay of
// zero is valid.
//
// The interval is implemented as a chain of one-shot timers, armed via a
// Host. Each time a timer fires, the next timer is armed before the callback
// is invoked, meaning a slow or panicking callback does not delay or break
// the chain. The Handle returned by New (or Set) tracks the number of calls,
// the pending timers, and whether the interval has been cleared.
//
// Loop is the provided Host, a cooperative event loop which runs all timer
// callbacks serially, within a single goroutine (the one calling Loop.Run).
// Set uses a package level Loop, see Default.
package dynamicinterval
