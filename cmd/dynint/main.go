// Command dynint runs the dynamic intervals described by a YAML plan, logging
// each tick, until every interval has finished, or it is interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	dynamicinterval "github.com/joeycumines/go-dynamicinterval"
	"github.com/joeycumines/go-dynamicinterval/internal/plan"
	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func main() {
	var planPath, logLevel string
	flag.StringVar(&planPath, "plan", "./plan.yaml", "path to plan yaml")
	flag.StringVar(&logLevel, "log-level", "", "overrides the plan log_level")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := plan.Load(planPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(logLevel) == "" {
		logLevel = p.LogLevel
	}

	if err := run(ctx, p, newConsoleLogger(logLevel)); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func newConsoleLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: consoleTimeFormat}
	return zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
}

// run starts every interval of the plan on a new loop, returning nil once
// all have finished, or the context error if it is cancelled first.
func run(ctx context.Context, p *plan.Plan, logger zerolog.Logger) error {
	sources := make([]any, len(p.Intervals))
	for i := range p.Intervals {
		source, err := p.Intervals[i].Source()
		if err != nil {
			return err
		}
		sources[i] = source
	}

	loop, err := dynamicinterval.NewLoop(dynamicinterval.WithLogger(logger))
	if err != nil {
		return err
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	// everything below runs on the loop goroutine
	remaining := len(p.Intervals)
	finished := func(name string, h *dynamicinterval.Handle, reason string) {
		logger.Info().
			Str("interval", name).
			Int("calls", h.Calls()).
			Str("reason", reason).
			Msg("interval finished")
		remaining--
		if remaining == 0 {
			stop()
		}
	}

	loop.SetTimeout(func() {
		for i := range p.Intervals {
			iv := p.Intervals[i]
			var h *dynamicinterval.Handle
			h = dynamicinterval.New(loop, func(args ...any) {
				calls := h.Calls()
				e := logger.Info().Str("interval", iv.Name).Int("calls", calls)
				if len(args) != 0 {
					e = e.Interface("args", args)
				}
				e.Msg("tick")
				switch {
				case iv.Limit > 0 && calls >= iv.Limit:
					h.Clear()
					finished(iv.Name, h, "limit reached")
				case len(h.Timers()) == 0:
					finished(iv.Name, h, "delays exhausted")
				}
			}, sources[i], iv.Args...)
			logger.Debug().Str("interval", iv.Name).Msg("interval started")
			if len(h.Timers()) == 0 {
				finished(iv.Name, h, "never started")
			}
		}
	}, 0)

	err = loop.Run(runCtx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
