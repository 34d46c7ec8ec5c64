package dynamicinterval

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type (
	// Option configures a Loop, see NewLoop.
	Option interface {
		applyOption(c *loopConfig) error
	}

	optionFunc func(c *loopConfig) error

	loopConfig struct {
		logger  *zerolog.Logger // see Loop.logger
		onPanic PanicHandler    // see Loop.onPanic
	}
)

var (
	_ Option = optionFunc(nil)
)

// NewLoop initialises a [Loop], with the given options.
// See also `With*` prefixed functions.
//
// By default, the loop does not log, except for recovered panics, which are
// logged at error level, using the global zerolog logger. Use WithLogger to
// log timer activity (at trace level) and panics to a specific logger.
func NewLoop(options ...Option) (*Loop, error) {
	var c loopConfig

	for _, option := range options {
		if err := option.applyOption(&c); err != nil {
			return nil, err
		}
	}

	x := Loop{
		pending: make(map[TimerID]*timerEntry),
		wakeCh:  make(chan struct{}, 1),
		onPanic: c.onPanic,
	}

	if c.logger != nil {
		x.logger = *c.logger
		x.panicLogger = *c.logger
	} else {
		x.logger = zerolog.Nop()
		x.panicLogger = log.Logger
	}

	if x.onPanic == nil {
		x.onPanic = x.logPanic
	}

	return &x, nil
}

// WithLogger configures the logger used by the loop, including for the
// default PanicHandler.
func WithLogger(logger zerolog.Logger) Option {
	return optionFunc(func(c *loopConfig) error {
		c.logger = &logger
		return nil
	})
}

// WithPanicHandler configures a [PanicHandler], which replaces the default
// behavior, of logging recovered panics.
func WithPanicHandler(handler PanicHandler) Option {
	return optionFunc(func(c *loopConfig) error {
		if handler == nil {
			return errors.New(`dynamicinterval: panic handler must not be nil`)
		}
		c.onPanic = handler
		return nil
	})
}

func (x optionFunc) applyOption(c *loopConfig) error {
	return x(c)
}
