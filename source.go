package dynamicinterval

import (
	"reflect"
)

type (
	// Producer is a delay producer, called prior to arming each timer. The
	// returned value is coerced to milliseconds, see ToMillis.
	Producer func() any

	// sequence is the producer for slice and array sources.
	sequence struct {
		values []any
	}
)

// Normalize converts a delay source into a Producer. It is performed once,
// by New, and may be used to preview the delays a source would produce.
//
// Functions (Producer, func() any, or any other func with no parameters and
// a single result) are used as-is. Slices and arrays are copied, then shifted
// from, yielding nil once exhausted. Any other value, including a nil func,
// is treated as a constant.
func Normalize(source any) Producer {
	switch source := source.(type) {
	case nil:
		return constant(nil)
	case Producer:
		if source == nil {
			return constant(nil)
		}
		return source
	case func() any:
		if source == nil {
			return constant(nil)
		}
		return source
	}

	rv := reflect.ValueOf(source)
	switch rv.Kind() {
	case reflect.Func:
		if rv.IsNil() {
			return constant(nil)
		}
		if t := rv.Type(); t.NumIn() == 0 && t.NumOut() == 1 && !t.IsVariadic() {
			return func() any {
				return rv.Call(nil)[0].Interface()
			}
		}

	case reflect.Slice, reflect.Array:
		seq := sequence{values: make([]any, rv.Len())}
		for i := range seq.values {
			seq.values[i] = rv.Index(i).Interface()
		}
		return seq.shift
	}

	return constant(source)
}

func constant(v any) Producer {
	return func() any { return v }
}

func (x *sequence) shift() (v any) {
	if len(x.values) == 0 {
		return nil
	}
	v = x.values[0]
	x.values[0] = nil
	x.values = x.values[1:]
	return v
}
