package dynamicinterval

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewLoop(t *testing.T) {
	t.Run("panic handler is nil", func(t *testing.T) {
		_, err := NewLoop(WithPanicHandler(nil))
		if err == nil || err.Error() != "dynamicinterval: panic handler must not be nil" {
			t.Errorf("expected error not found: %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		loop, err := NewLoop()
		if err != nil {
			t.Fatal(err)
		}
		if loop.onPanic == nil || loop.pending == nil || loop.wakeCh == nil {
			t.Error(`loop not initialized`)
		}
		if loop.Pending() != 0 {
			t.Error(loop.Pending())
		}
		// only panics are logged, unless a logger is configured
		if lvl := loop.logger.GetLevel(); lvl != zerolog.Disabled {
			t.Error(lvl)
		}
	})
}

func TestWithLogger_defaultPanicHandler(t *testing.T) {
	defer checkNumGoroutines(time.Second * 3)(t)

	// trace is below the default global level
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	loop, err := NewLoop(WithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel)))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	loop.SetTimeout(func() { panic(`some panic`) }, 0)
	loop.SetTimeout(cancel, time.Millisecond)

	if err := loop.Run(ctx); err != context.Canceled {
		t.Fatal(err)
	}

	out := buf.String()
	for _, s := range []string{
		`"message":"dynamicinterval: timer armed"`,
		`"message":"dynamicinterval: recovered panic in timer callback"`,
		`"panic":"some panic"`,
		`"level":"error"`,
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %s in output:\n%s", s, out)
		}
	}
}
