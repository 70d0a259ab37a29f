package loader

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers the preset constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// Wheel { title = "..." }
	L.SetGlobal("Wheel", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		if title, ok := tbl.RawGetString("title").(lua.LString); ok {
			coll.title = string(title)
		}
		return 0
	}))

	// Option "name" { weight = 2 } is curried: Option("name") returns a function taking the table.
	// Option("name", 2) is accepted as a shorthand.
	L.SetGlobal("Option", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		where := strings.TrimSuffix(L.Where(1), ":")
		if L.GetTop() >= 2 {
			coll.options = append(coll.options, rawOption{name: name, weight: L.Get(2), source: where})
			return 0
		}
		L.Push(L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.options = append(coll.options, rawOption{
				name:   name,
				weight: tbl.RawGetString("weight"),
				source: where,
			})
			return 0
		}))
		return 1
	}))

	// Options { {"A", 2}, { name = "B", weight = 1 }, "C" }
	L.SetGlobal("Options", L.NewFunction(func(L *lua.LState) int {
		list := L.CheckTable(1)
		where := strings.TrimSuffix(L.Where(1), ":")
		list.ForEach(func(_, v lua.LValue) {
			coll.options = append(coll.options, listEntry(v, where))
		})
		return 0
	}))
}

// listEntry reads one element of an Options list. Malformed entries keep
// an empty name so validation reports them.
func listEntry(v lua.LValue, where string) rawOption {
	switch e := v.(type) {
	case lua.LString:
		return rawOption{name: string(e), weight: lua.LNil, source: where}
	case *lua.LTable:
		if name, ok := e.RawGetString("name").(lua.LString); ok {
			return rawOption{name: string(name), weight: e.RawGetString("weight"), source: where}
		}
		name, _ := e.RawGetInt(1).(lua.LString)
		return rawOption{name: string(name), weight: e.RawGetInt(2), source: where}
	default:
		return rawOption{weight: lua.LNil, source: where}
	}
}
