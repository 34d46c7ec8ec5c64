package dynamicinterval

import (
	"golang.org/x/time/rate"
)

// Limited returns a Producer which paces ticks using a token bucket. Each
// delay is that of a new reservation, made just prior to arming the timer.
// The interval terminates if the limiter can never satisfy a reservation
// (e.g. a zero burst, with a finite limit).
func Limited(limiter *rate.Limiter) Producer {
	return func() any {
		r := limiter.Reserve()
		if !r.OK() {
			return nil
		}
		return r.Delay()
	}
}
