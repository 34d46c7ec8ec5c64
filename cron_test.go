package dynamicinterval

import (
	"strings"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
)

type neverSchedule struct{}

func (neverSchedule) Next(time.Time) time.Time { return time.Time{} }

func TestCron_invalid(t *testing.T) {
	_, err := Cron(`not a cron`)
	if err == nil || !strings.HasPrefix(err.Error(), `dynamicinterval: invalid cron expression "not a cron": `) {
		t.Errorf("expected error not found: %v", err)
	}
}

func TestCron_valid(t *testing.T) {
	p, err := Cron(`@every 1h`)
	if err != nil {
		t.Fatal(err)
	}
	d, ok := toDelay(p())
	if !ok || d <= 0 || d > time.Hour {
		t.Error(d, ok)
	}
}

func TestCronSchedule(t *testing.T) {
	schedule, err := cron.ParseStandard(`CRON_TZ=UTC */15 * * * *`)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 1, 0, 7, 0, 0, time.UTC)
	p := CronSchedule(schedule, func() time.Time { return now })
	if v := p(); v != 8*time.Minute {
		t.Error(v)
	}
	now = now.Add(8 * time.Minute)
	if v := p(); v != 15*time.Minute {
		t.Error(v)
	}
}

func TestCronSchedule_terminates(t *testing.T) {
	host := newManualHost()
	h := New(host, nil, CronSchedule(neverSchedule{}, time.Now))
	if len(h.Timers()) != 0 || host.numPending() != 0 {
		t.Error(h.Timers(), host.numPending())
	}
}

func TestCronSchedule_drivesInterval(t *testing.T) {
	host := newManualHost()
	now := time.Date(2026, 1, 1, 0, 0, 30, 0, time.UTC)
	// ConstantDelaySchedule measures from the time it is asked
	h := New(host, func(...any) { now = now.Add(time.Minute) }, CronSchedule(cron.Every(time.Minute), func() time.Time { return now }))
	for i := 0; i < 3; i++ {
		host.fireNext()
	}
	h.Clear()
	if h.Calls() != 3 {
		t.Error(h.Calls())
	}
	for i, d := range host.delays() {
		if d != time.Minute {
			t.Error(i, d)
		}
	}
}
