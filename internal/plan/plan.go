// Package plan loads YAML files describing a set of named dynamic intervals.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	dynamicinterval "github.com/joeycumines/go-dynamicinterval"
	yaml "go.yaml.in/yaml/v3"
	"golang.org/x/time/rate"
)

// Plan is a set of named intervals, run together by cmd/dynint.
type Plan struct {
	LogLevel  string     `yaml:"log_level"`
	Intervals []Interval `yaml:"intervals"`
}

// Interval must configure exactly one of Delays, Every, Cron or Rate.
type Interval struct {
	Name string `yaml:"name"`

	// Delays are consumed one per tick, see dynamicinterval.ToMillis.
	Delays []any `yaml:"delays"`
	// Every is a constant delay, as a Go duration string.
	Every string `yaml:"every"`
	// Cron is a standard cron expression.
	Cron string `yaml:"cron"`
	// Rate paces ticks with a token bucket.
	Rate *Rate `yaml:"rate"`

	// Limit clears the interval after this many ticks, if positive.
	Limit int `yaml:"limit"`
	// Args are passed to each tick.
	Args []any `yaml:"args"`
}

// Rate configures a token bucket, see rate.NewLimiter.
type Rate struct {
	PerSecond float64 `yaml:"per_second"`
	// Burst defaults to 1.
	Burst int `yaml:"burst"`
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a plan. Unknown fields are rejected.
func Parse(data []byte) (*Plan, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("plan is empty")
		}
		return nil, fmt.Errorf("yaml decode: %w", err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every interval, including that its source can be built.
func (p *Plan) Validate() error {
	if len(p.Intervals) == 0 {
		return errors.New("intervals: at least one interval is required")
	}
	seen := make(map[string]struct{}, len(p.Intervals))
	for i := range p.Intervals {
		iv := &p.Intervals[i]
		path := fmt.Sprintf("intervals[%d]", i)
		name := strings.TrimSpace(iv.Name)
		if name == "" {
			return fmt.Errorf("%s.name: required", path)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%s.name: duplicate %q", path, name)
		}
		seen[name] = struct{}{}
		if iv.Limit < 0 {
			return fmt.Errorf("%s.limit: must be >= 0", path)
		}
		if _, err := iv.source(path); err != nil {
			return err
		}
	}
	return nil
}

// Source builds the delay source for the interval, see dynamicinterval.New.
func (iv *Interval) Source() (any, error) {
	return iv.source(iv.Name)
}

func (iv *Interval) source(path string) (any, error) {
	var (
		n      int
		source any
	)

	if iv.Delays != nil {
		n++
		source = append([]any(nil), iv.Delays...)
	}

	if s := strings.TrimSpace(iv.Every); s != "" {
		n++
		d, err := parseDuration(path+".every", s)
		if err != nil {
			return nil, err
		}
		source = d
	}

	if s := strings.TrimSpace(iv.Cron); s != "" {
		n++
		p, err := dynamicinterval.Cron(s)
		if err != nil {
			return nil, fmt.Errorf("%s.cron: %w", path, err)
		}
		source = p
	}

	if iv.Rate != nil {
		n++
		if iv.Rate.PerSecond <= 0 {
			return nil, fmt.Errorf("%s.rate.per_second: must be > 0", path)
		}
		if iv.Rate.Burst < 0 {
			return nil, fmt.Errorf("%s.rate.burst: must be >= 0", path)
		}
		burst := iv.Rate.Burst
		if burst == 0 {
			burst = 1
		}
		source = dynamicinterval.Limited(rate.NewLimiter(rate.Limit(iv.Rate.PerSecond), burst))
	}

	if n != 1 {
		return nil, fmt.Errorf("%s: exactly one of delays, every, cron or rate is required", path)
	}
	return source, nil
}

func parseDuration(path, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}
