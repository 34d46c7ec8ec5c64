package dynamicinterval

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron parses a standard (five field, or descriptor such as "@hourly") cron
// expression, returning a Producer which yields the delay until the next
// activation, as per the local time zone (or the CRON_TZ/TZ prefix).
func Cron(expr string) (Producer, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf(`dynamicinterval: invalid cron expression %q: %w`, expr, err)
	}
	return CronSchedule(schedule, time.Now), nil
}

// CronSchedule returns a Producer which yields the delay from now until the
// next activation of the schedule. The interval terminates if the schedule
// has no next activation.
func CronSchedule(schedule cron.Schedule, now func() time.Time) Producer {
	return func() any {
		t := now()
		next := schedule.Next(t)
		if next.IsZero() {
			return nil
		}
		if d := next.Sub(t); d > 0 {
			return d
		}
		return time.Duration(0)
	}
}
