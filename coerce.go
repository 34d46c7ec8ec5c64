package dynamicinterval

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxDelayMillis is the largest delay representable as a time.Duration.
const maxDelayMillis = float64(math.MaxInt64) / float64(time.Millisecond)

var decimalLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// ToMillis coerces an arbitrary value to a number of milliseconds, following
// the same rules as JavaScript's Number(), where they apply:
//
//   - nil is NaN (it also marks an exhausted sequence)
//   - bool is 0 or 1
//   - integer and floating point kinds are their value
//   - time.Duration is converted to (fractional) milliseconds
//   - strings are trimmed, with the empty string being 0, otherwise they must
//     be a decimal literal, a 0x, 0o or 0b prefixed integer, or Infinity
//   - anything else is NaN
func ToMillis(v any) float64 {
	switch v := v.(type) {
	case nil:
		return math.NaN()
	case time.Duration:
		return float64(v) / float64(time.Millisecond)
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		return parseMillis(v)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return parseMillis(rv.String())
	default:
		return math.NaN()
	}
}

func parseMillis(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(s) > 2 && s[0] == '0' {
		var base int
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(s, '_') {
				return math.NaN()
			}
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}

	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// out of range still yields ±Inf, which is what we want
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// toDelay applies the termination rule, returning false if the value is not
// a number, or is negative.
func toDelay(v any) (time.Duration, bool) {
	ms := ToMillis(v)
	if math.IsNaN(ms) || ms < 0 {
		return 0, false
	}
	if ms >= maxDelayMillis {
		return math.MaxInt64, true
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}
