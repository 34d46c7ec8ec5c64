package dynamicinterval

import "time"

// stopAndDrainTimer relies on the Go 1.23+ time.Timer semantics, where Stop
// guarantees no stale value will be received after it returns.
func stopAndDrainTimer(t *time.Timer) (already bool) {
	select {
	case <-t.C:
		return false
	default:
		return t.Stop()
	}
}
