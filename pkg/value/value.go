// Package value models call arguments and results as a closed variant:
// Null, Bool, Int, Float, String, List and Map.
//
// Of converts arbitrary Go values into that set and never fails; anything
// without a native representation is carried as its string form.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Kind identifies a variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one of Null, Bool, Int, Float, String, List or Map.
type Value interface {
	Kind() Kind
}

type (
	Null   struct{}
	Bool   bool
	Int    int64
	Float  float64
	String string
	List   []Value
	Map    map[string]Value
)

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }

// Keys returns the map keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Of converts v into a Value. Nil and nil pointers become Null, []byte
// becomes String, maps with string keys become Map, slices and arrays become
// List. Structs, channels, funcs and other types fall back to fmt's %v form
// (or String() when they implement fmt.Stringer).
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int8:
		return Int(t)
	case int16:
		return Int(t)
	case int32:
		return Int(t)
	case int64:
		return Int(t)
	case uint8:
		return Int(t)
	case uint16:
		return Int(t)
	case uint32:
		return Int(t)
	case uint:
		return ofUint(uint64(t))
	case uint64:
		return ofUint(t)
	case float32:
		return Float(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case []byte:
		return String(t)
	case json.Number:
		return ofNumber(t)
	case map[string]any:
		m := make(Map, len(t))
		for k, e := range t {
			m[k] = Of(e)
		}
		return m
	case []any:
		l := make(List, len(t))
		for i, e := range t {
			l[i] = Of(e)
		}
		return l
	case fmt.Stringer:
		return String(t.String())
	}
	return ofReflect(reflect.ValueOf(v))
}

func ofUint(u uint64) Value {
	if u > math.MaxInt64 {
		return String(strconv.FormatUint(u, 10))
	}
	return Int(u)
}

func ofNumber(n json.Number) Value {
	if i, err := n.Int64(); err == nil {
		return Int(i)
	}
	if f, err := n.Float64(); err == nil {
		return Float(f)
	}
	return String(n)
}

func ofReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}
		}
		return Of(rv.Elem().Interface())
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		m := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = Of(iter.Value().Interface())
		}
		return m
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return List{}
		}
		l := make(List, rv.Len())
		for i := range l {
			l[i] = Of(rv.Index(i).Interface())
		}
		return l
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ofUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.String:
		return String(rv.String())
	}
	return String(fmt.Sprintf("%v", rv.Interface()))
}

// Native returns v as plain Go data: nil, bool, int64, float64, string,
// []any or map[string]any.
func Native(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(t)
	case Int:
		return int64(t)
	case Float:
		return float64(t)
	case String:
		return string(t)
	case List:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Native(e)
		}
		return out
	case Map:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Native(e)
		}
		return out
	}
	return fmt.Sprintf("%v", v)
}

// FromDecoded converts serializer output back into a Value. Unlike Of it is
// strict: map keys must be strings and unsigned integers must fit int64.
func FromDecoded(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case int64:
		return Int(t), nil
	case uint64:
		if t > math.MaxInt64 {
			return nil, fmt.Errorf("value: integer %d overflows int64", t)
		}
		return Int(t), nil
	case float64:
		return Float(t), nil
	case float32:
		return Float(t), nil
	case string:
		return String(t), nil
	case []byte:
		return String(t), nil
	case json.Number:
		return ofNumber(t), nil
	case []any:
		l := make(List, len(t))
		for i, e := range t {
			ev, err := FromDecoded(e)
			if err != nil {
				return nil, err
			}
			l[i] = ev
		}
		return l, nil
	case map[string]any:
		m := make(Map, len(t))
		for k, e := range t {
			ev, err := FromDecoded(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			m[k] = ev
		}
		return m, nil
	case map[any]any:
		m := make(Map, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("value: map key %v is %T, want string", k, k)
			}
			ev, err := FromDecoded(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", ks, err)
			}
			m[ks] = ev
		}
		return m, nil
	}
	return nil, fmt.Errorf("value: unsupported decoded type %T", v)
}
