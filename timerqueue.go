package dynamicinterval

import (
	"time"
)

type (
	timerEntry struct {
		fn  func()
		due time.Time
		id  TimerID
		// index is maintained by timerQueue, for heap.Remove
		index int
	}

	// timerQueue implements heap.Interface. Ids are allocated in arming
	// order, so they break ties between equal due times.
	timerQueue []*timerEntry
)

func (x timerQueue) Len() int { return len(x) }

func (x timerQueue) Less(i, j int) bool {
	if x[i].due.Equal(x[j].due) {
		return x[i].id < x[j].id
	}
	return x[i].due.Before(x[j].due)
}

func (x timerQueue) Swap(i, j int) {
	x[i], x[j] = x[j], x[i]
	x[i].index = i
	x[j].index = j
}

func (x *timerQueue) Push(v any) {
	entry := v.(*timerEntry)
	entry.index = len(*x)
	*x = append(*x, entry)
}

func (x *timerQueue) Pop() any {
	old := *x
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*x = old[:n-1]
	return entry
}
