package dynamicinterval

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/pprof"
	"slices"
	"sync"
	"testing"
	"time"
)

// checkNumGoroutines is intended to be used to check for errant goroutines,
// like `defer checkNumGoroutines(time.Second * 3)(t)`.
func checkNumGoroutines(max time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		if t != nil {
			t.Helper()
		}
		after := waitNumGoroutines(max, func(n int) bool { return n <= before })
		if after > before {
			var b bytes.Buffer
			_ = pprof.Lookup("goroutine").WriteTo(&b, 1)
			testingErrorfOrPanic(t, "%s\n\nstarted with %d goroutines finished with %d", b.Bytes(), before, after)
		}
	}
}

// waitNumGoroutines will block until there are a target number of goroutines
// remaining, or a max duration is exceeded.
func waitNumGoroutines(maxDur time.Duration, fn func(n int) bool) (n int) {
	const minDur = time.Millisecond * 10
	if maxDur < minDur {
		maxDur = minDur
	}
	count := int(maxDur / minDur)
	maxDur /= time.Duration(count)
	n = runtime.NumGoroutine()
	for i := 0; i < count && !fn(n); i++ {
		time.Sleep(maxDur)
		runtime.GC()
		n = runtime.NumGoroutine()
	}
	return
}

func testingErrorfOrPanic(t *testing.T, format string, values ...interface{}) {
	if t == nil {
		panic(fmt.Errorf(format, values...))
	}
	t.Helper()
	t.Errorf(format, values...)
}

type (
	// manualHost is a Host which only fires timers when instructed.
	manualHost struct {
		mu      sync.Mutex
		lastID  TimerID
		armed   map[TimerID]manualTimer
		pending []TimerID
		cleared []TimerID
	}

	manualTimer struct {
		fn func()
		d  time.Duration
	}
)

func newManualHost() *manualHost {
	return &manualHost{armed: make(map[TimerID]manualTimer)}
}

func (x *manualHost) SetTimeout(fn func(), d time.Duration) TimerID {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.lastID++
	x.armed[x.lastID] = manualTimer{fn: fn, d: d}
	x.pending = append(x.pending, x.lastID)
	return x.lastID
}

func (x *manualHost) ClearTimeout(id TimerID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if i := slices.Index(x.pending, id); i >= 0 {
		x.pending = slices.Delete(x.pending, i, i+1)
		x.cleared = append(x.cleared, id)
	}
}

// fireNext fires the oldest pending timer, returning false if there were none.
func (x *manualHost) fireNext() bool {
	x.mu.Lock()
	if len(x.pending) == 0 {
		x.mu.Unlock()
		return false
	}
	id := x.pending[0]
	x.pending = x.pending[1:]
	fn := x.armed[id].fn
	x.mu.Unlock()
	fn()
	return true
}

// timer returns the callback and delay of any timer ever armed.
func (x *manualHost) timer(id TimerID) manualTimer {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.armed[id]
}

func (x *manualHost) numPending() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pending)
}

func (x *manualHost) numCleared() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.cleared)
}

// delays returns the delay of every timer armed, in order.
func (x *manualHost) delays() []time.Duration {
	x.mu.Lock()
	defer x.mu.Unlock()
	delays := make([]time.Duration, 0, len(x.armed))
	for id := TimerID(1); id <= x.lastID; id++ {
		delays = append(delays, x.armed[id].d)
	}
	return delays
}
