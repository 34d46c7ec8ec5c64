package dynamicinterval

import (
	"slices"
	"sync"
)

type (
	// Handle is a reference to a dynamic interval, as returned by New or Set.
	// It is safe to use concurrently. The zero value is not usable.
	Handle struct {
		mu       sync.Mutex
		host     Host
		callback Callback
		args     []any
		next     Producer
		// calls is the number of ticks which reached the callback
		calls int
		// timers are the pending timers, at most one under normal operation
		timers []TimerID
		// cleared is set by Clear, and is never unset
		cleared bool
	}

	clearer interface {
		Clear() *Handle
	}
)

var (
	_ clearer = (*Handle)(nil)
)

// Set is New, using the Default loop.
func Set(callback Callback, source any, args ...any) *Handle {
	return New(Default(), callback, source, args...)
}

// New starts a dynamic interval, which will call callback with args on each
// tick, where the delay prior to each tick is determined by source, see
// Normalize and ToMillis. The first timer (if any) is armed before New
// returns, meaning the interval may be cleared before it ever ticks.
//
// An invalid source does not cause an error, the interval will simply never
// tick. Such cases may be detected by checking Handle.Timers.
func New(host Host, callback Callback, source any, args ...any) *Handle {
	x := Handle{
		host:     host,
		callback: callback,
		args:     args,
		next:     Normalize(source),
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.schedule()
	return &x
}

// Calls returns the number of ticks which have invoked the callback.
func (x *Handle) Calls() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.calls
}

// Timers returns a snapshot of the pending timer identifiers.
func (x *Handle) Timers() []TimerID {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append(make([]TimerID, 0, len(x.timers)), x.timers...)
}

// Cleared returns true if Clear has been called.
func (x *Handle) Cleared() bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.cleared
}

// Clear stops the interval, cancelling any pending timers. No tick will occur
// after it returns. It is idempotent, and returns the receiver, which may be
// nil (in which case it is a no-op).
func (x *Handle) Clear() *Handle {
	if x == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, id := range x.timers {
		x.host.ClearTimeout(id)
	}
	x.cleared = true
	x.timers = nil
	return x
}

// Clear calls Handle.Clear, if v is a non-nil value implementing it, and is
// otherwise a no-op.
func Clear(v any) {
	if v, ok := v.(clearer); ok {
		v.Clear()
	}
}

// schedule arms the next timer, unless the interval is cleared, or the
// producer yields a value which terminates it. Must be called with mu held.
func (x *Handle) schedule() {
	if x.cleared {
		return
	}
	d, ok := toDelay(x.next())
	if !ok {
		return
	}
	// the timer may fire before SetTimeout returns, so tick reads id under mu
	id := new(TimerID)
	*id = x.host.SetTimeout(func() { x.fire(id) }, d)
	x.timers = append(x.timers, *id)
}

func (x *Handle) fire(id *TimerID) {
	if !x.tick(id) {
		return
	}
	// next timer is already armed, the callback is free to clear it
	x.callback.call(x.args)
}

func (x *Handle) tick(id *TimerID) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.cleared {
		return false
	}
	x.calls++
	x.timers = removeTimer(x.timers, *id)
	x.schedule()
	return true
}

// removeTimer removes the first occurrence of id, if any.
func removeTimer(timers []TimerID, id TimerID) []TimerID {
	if i := slices.Index(timers, id); i >= 0 {
		return slices.Delete(timers, i, i+1)
	}
	return timers
}
