package dynamicinterval

import (
	"container/heap"
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type (
	// Loop is a cooperative event loop, implementing Host. All timer
	// callbacks run serially, within Loop.Run.
	//
	// Loop must be constructed with NewLoop. Timers may be armed (and
	// cleared) from any goroutine, at any time, but will only fire while
	// Run is running.
	Loop struct {
		mu sync.Mutex

		// queue orders pending timers by due time, then by arming order
		queue timerQueue

		// pending indexes the entries of queue by id
		pending map[TimerID]*timerEntry

		// lastID is the last allocated TimerID (the first is 1)
		lastID TimerID

		// wakeCh is buffered, and is used to wake up Run when a timer is
		// armed, which may be sooner than the one it is waiting on
		wakeCh chan struct{}

		logger  zerolog.Logger
		onPanic PanicHandler
		// panicLogger is used by the default PanicHandler
		panicLogger zerolog.Logger

		// running is used to trigger a panic if Run is called concurrently
		running atomic.Int32
	}
)

var (
	_ Host = (*Loop)(nil)

	defaultLoop struct {
		once sync.Once
		loop *Loop
	}
)

// Default returns the package level Loop, used by Set, starting it on first
// use. It runs for the lifetime of the process.
func Default() *Loop {
	defaultLoop.once.Do(func() {
		loop, err := NewLoop()
		if err != nil {
			panic(err)
		}
		defaultLoop.loop = loop
		go func() { _ = loop.Run(context.Background()) }()
	})
	return defaultLoop.loop
}

// Run runs the loop, blocking until the context is cancelled, returning the
// context error. A panic will occur if called concurrently, or if called on
// a loop which was not initialized with NewLoop.
//
// Timer callbacks are run one at a time, in order of due time (ties broken
// by the order they were armed). Panics are recovered, and passed to the
// configured PanicHandler, after which the loop continues.
func (x *Loop) Run(ctx context.Context) error {
	if x.wakeCh == nil {
		panic(`dynamicinterval: loop must be initialized with NewLoop`)
	}

	if !x.running.CompareAndSwap(0, 1) {
		panic(`dynamicinterval: loop already running`)
	}
	defer x.running.Store(0)

	wake := time.NewTimer(time.Hour)
	stopAndDrainTimer(wake)
	defer wake.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fn, wait := x.next(time.Now())
		if fn != nil {
			x.fire(fn)
			continue
		}

		var wakeC <-chan time.Time
		if wait >= 0 {
			wake.Reset(wait)
			wakeC = wake.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-x.wakeCh:
		case <-wakeC:
		}

		if wakeC != nil {
			stopAndDrainTimer(wake)
		}
	}
}

// SetTimeout implements Host.
func (x *Loop) SetTimeout(fn func(), d time.Duration) TimerID {
	if d < 0 {
		d = 0
	}

	x.mu.Lock()
	x.lastID++
	entry := &timerEntry{
		id:  x.lastID,
		due: time.Now().Add(d),
		fn:  fn,
	}
	heap.Push(&x.queue, entry)
	x.pending[entry.id] = entry
	x.mu.Unlock()

	x.logger.Trace().
		Uint64(`timer`, uint64(entry.id)).
		Dur(`delay`, d).
		Msg(`dynamicinterval: timer armed`)

	select {
	case x.wakeCh <- struct{}{}:
	default:
	}

	return entry.id
}

// ClearTimeout implements Host.
func (x *Loop) ClearTimeout(id TimerID) {
	x.mu.Lock()
	entry, ok := x.pending[id]
	if ok {
		delete(x.pending, id)
		heap.Remove(&x.queue, entry.index)
	}
	x.mu.Unlock()

	if ok {
		x.logger.Trace().
			Uint64(`timer`, uint64(id)).
			Msg(`dynamicinterval: timer cleared`)
	}
}

// Pending returns the number of timers which have not fired, or been
// cleared.
func (x *Loop) Pending() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.pending)
}

// next pops the earliest timer, if it is due, otherwise it returns how long
// until the earliest timer is due, or -1 if there are none.
func (x *Loop) next(now time.Time) (func(), time.Duration) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(x.queue) == 0 {
		return nil, -1
	}

	if entry := x.queue[0]; entry.due.After(now) {
		return nil, entry.due.Sub(now)
	}

	entry := heap.Pop(&x.queue).(*timerEntry)
	delete(x.pending, entry.id)

	return entry.fn, 0
}

func (x *Loop) fire(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			x.onPanic(r, debug.Stack())
		}
	}()
	fn()
}

func (x *Loop) logPanic(value any, stack []byte) {
	x.panicLogger.Error().
		Interface(`panic`, value).
		Bytes(`stack`, stack).
		Msg(`dynamicinterval: recovered panic in timer callback`)
}
