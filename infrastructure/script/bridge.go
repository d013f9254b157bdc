package script

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"rpgbase-go/core/event"
)

// maxDepth bounds nested table conversion.
const maxDepth = 16

// refTypeName is the metatable name of userdata wrapping Go references.
const refTypeName = "rpgbase.ref"

// bridge converts event payloads to Lua values and back.
// Values Lua has no type for (receivers, pointers) cross as userdata and come
// back as the same Go value, so scripts can hand a source or target to a new
// event without losing its identity.
type bridge struct {
	L *lua.LState
}

func newBridge(L *lua.LState) *bridge {
	b := &bridge{L: L}
	mt := L.NewTypeMetatable(refTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(refToString))
	L.SetField(mt, "__eq", L.NewFunction(refEqual))
	return b
}

func refToString(L *lua.LState) int {
	ud := L.CheckUserData(1)
	if s, ok := ud.Value.(fmt.Stringer); ok {
		L.Push(lua.LString(s.String()))
	} else {
		L.Push(lua.LString(fmt.Sprintf("%T", ud.Value)))
	}
	return 1
}

func refEqual(L *lua.LState) int {
	a := L.CheckUserData(1)
	b := L.CheckUserData(2)
	ta := reflect.TypeOf(a.Value)
	L.Push(lua.LBool(ta != nil && ta == reflect.TypeOf(b.Value) && ta.Comparable() && a.Value == b.Value))
	return 1
}

// eventTable builds the global event table seen by scripts.
func (b *bridge) eventTable(e event.Event) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("name", lua.LString(e.Name))
	t.RawSetString("data", b.mapToTable(e.Data, 0))
	return t
}

func (b *bridge) mapToTable(m map[string]any, depth int) *lua.LTable {
	t := b.L.NewTable()
	for k, v := range m {
		t.RawSetString(k, b.toLua(v, depth+1))
	}
	return t
}

func (b *bridge) toLua(v any, depth int) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	if depth > maxDepth {
		return lua.LNil
	}

	switch val := v.(type) {
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case event.Data:
		return b.mapToTable(val, depth)
	case map[string]any:
		return b.mapToTable(val, depth)
	case []any:
		t := b.L.NewTable()
		for _, item := range val {
			t.Append(b.toLua(item, depth+1))
		}
		return t
	case lua.LValue:
		return val
	default:
		ud := b.L.NewUserData()
		ud.Value = v
		b.L.SetMetatable(ud, b.L.GetTypeMetatable(refTypeName))
		return ud
	}
}

// tableToData converts a script table into an event payload.
func (b *bridge) tableToData(t *lua.LTable) event.Data {
	data := make(event.Data)
	t.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		data[string(key)] = b.toGo(v, 0)
	})
	return data
}

func (b *bridge) toGo(lv lua.LValue, depth int) any {
	if depth > maxDepth {
		return nil
	}

	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LUserData:
		return v.Value
	case *lua.LTable:
		if v.MaxN() > 0 {
			out := make([]any, 0, v.MaxN())
			for i := 1; i <= v.MaxN(); i++ {
				out = append(out, b.toGo(v.RawGetInt(i), depth+1))
			}
			return out
		}
		m := make(map[string]any)
		v.ForEach(func(k, item lua.LValue) {
			if key, ok := k.(lua.LString); ok {
				m[string(key)] = b.toGo(item, depth+1)
			}
		})
		return m
	default:
		return nil
	}
}
