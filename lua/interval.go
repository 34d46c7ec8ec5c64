// Package lua exposes dynamic intervals to gopher-lua scripts.
//
// Register installs a global `interval` table:
//
//	h = interval.set(fn, source, ...) -- fn is called with ... on each tick
//	interval.clear(h)                 -- accepts anything, never errors
//	h:calls(), h:timers(), h:cleared(), h:clear()
//
// The source may be a function (called before each tick), a table (its array
// part is copied, then consumed one value per tick), or any other value,
// which is used as a constant. Values are coerced as per
// dynamicinterval.ToMillis, e.g. "3" is 3 milliseconds, and "foo" stops the
// interval.
//
// An LState is not safe for concurrent use, so the host must run callbacks on
// the same goroutine as the script, e.g. run scripts from within a
// dynamicinterval.Loop, via SetTimeout.
package lua

import (
	dynamicinterval "github.com/joeycumines/go-dynamicinterval"
	glua "github.com/yuin/gopher-lua"
)

const handleTypeName = `dynamicinterval.handle`

// Register installs the `interval` global, arming timers via host.
func Register(L *glua.LState, host dynamicinterval.Host) {
	mt := L.NewTypeMetatable(handleTypeName)
	L.SetField(mt, `__index`, L.SetFuncs(L.NewTable(), map[string]glua.LGFunction{
		`calls`:   handleCalls,
		`timers`:  handleTimers,
		`cleared`: handleCleared,
		`clear`:   handleClear,
	}))

	t := L.NewTable()
	L.SetField(t, `set`, L.NewFunction(func(L *glua.LState) int {
		return set(L, host)
	}))
	L.SetField(t, `clear`, L.NewFunction(clearHandle))
	L.SetGlobal(`interval`, t)
}

// interval.set(fn, source, ...)
func set(L *glua.LState, host dynamicinterval.Host) int {
	fn := L.CheckFunction(1)
	source := toSource(L, L.Get(2))

	var args []any
	for i := 3; i <= L.GetTop(); i++ {
		args = append(args, L.Get(i))
	}

	h := dynamicinterval.New(host, callback(L, fn), source, args...)

	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, L.GetTypeMetatable(handleTypeName))
	L.Push(ud)
	return 1
}

// interval.clear(h)
func clearHandle(L *glua.LState) int {
	if ud, ok := L.Get(1).(*glua.LUserData); ok {
		dynamicinterval.Clear(ud.Value)
	}
	return 0
}

func checkHandle(L *glua.LState) *dynamicinterval.Handle {
	ud := L.CheckUserData(1)
	if h, ok := ud.Value.(*dynamicinterval.Handle); ok {
		return h
	}
	L.ArgError(1, `interval handle expected`)
	return nil
}

func handleCalls(L *glua.LState) int {
	L.Push(glua.LNumber(checkHandle(L).Calls()))
	return 1
}

func handleTimers(L *glua.LState) int {
	t := L.NewTable()
	for _, id := range checkHandle(L).Timers() {
		t.Append(glua.LNumber(id))
	}
	L.Push(t)
	return 1
}

func handleCleared(L *glua.LState) int {
	L.Push(glua.LBool(checkHandle(L).Cleared()))
	return 1
}

func handleClear(L *glua.LState) int {
	checkHandle(L).Clear()
	L.Push(L.Get(1))
	return 1
}

// callback adapts fn, raising any Lua error as a panic, to be handled by the
// host (e.g. the dynamicinterval.PanicHandler of a Loop).
func callback(L *glua.LState, fn *glua.LFunction) dynamicinterval.Callback {
	return func(args ...any) {
		values := make([]glua.LValue, len(args))
		for i, arg := range args {
			values[i] = arg.(glua.LValue)
		}
		if err := L.CallByParam(glua.P{Fn: fn, NRet: 0, Protect: true}, values...); err != nil {
			panic(err)
		}
	}
}

func toSource(L *glua.LState, v glua.LValue) any {
	switch v := v.(type) {
	case *glua.LFunction:
		return dynamicinterval.Producer(func() any {
			if err := L.CallByParam(glua.P{Fn: v, NRet: 1, Protect: true}); err != nil {
				panic(err)
			}
			ret := L.Get(-1)
			L.Pop(1)
			return toGo(ret)
		})

	case *glua.LTable:
		n := v.MaxN()
		values := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			values = append(values, toGo(v.RawGetInt(i)))
		}
		return values

	default:
		return toGo(v)
	}
}

func toGo(v glua.LValue) any {
	switch v := v.(type) {
	case glua.LNumber:
		return float64(v)
	case glua.LString:
		return string(v)
	case glua.LBool:
		return bool(v)
	case *glua.LNilType:
		return nil
	default:
		return v
	}
}
