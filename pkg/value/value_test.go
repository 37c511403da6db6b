package value

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"silenthope/pkg/protocol/codec"
)

type named string

type point struct{ X, Y int }

func TestOfConversions(t *testing.T) {
	var nilPtr *point
	n := 5
	cases := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Null{}},
		{"nil pointer", nilPtr, Null{}},
		{"pointer", &n, Int(5)},
		{"bool", true, Bool(true)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(7), Int(7)},
		{"huge uint64", uint64(math.MaxUint64), String("18446744073709551615")},
		{"float32", float32(0.5), Float(0.5)},
		{"bytes", []byte("raw"), String("raw")},
		{"named string", named("x"), String("x")},
		{"json int", json.Number("12"), Int(12)},
		{"json float", json.Number("1.5"), Float(1.5)},
		{"string map", map[string]string{"a": "b"}, Map{"a": String("b")}},
		{"int slice", []int{1, 2}, List{Int(1), Int(2)}},
		{"array", [2]bool{true, false}, List{Bool(true), Bool(false)}},
		{"nil slice", []string(nil), List{}},
		{"stringer", time.Second, String("1s")},
		{"struct", point{1, 2}, String("{1 2}")},
		{"int keyed map", map[int]string{1: "a"}, String("map[1:a]")},
		{"value passthrough", List{Int(1)}, List{Int(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Of(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Of(%#v) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNative(t *testing.T) {
	v := Map{"l": List{Int(1), Float(2.5), Null{}}, "s": String("x"), "b": Bool(true)}
	want := map[string]any{"l": []any{int64(1), 2.5, nil}, "s": "x", "b": true}
	if got := Native(v); !reflect.DeepEqual(got, want) {
		t.Fatalf("Native = %#v", got)
	}
	if Native(nil) != nil {
		t.Fatalf("Native(nil) should be nil")
	}
}

func TestFromDecodedIsStrict(t *testing.T) {
	if _, err := FromDecoded(map[any]any{1: "x"}); err == nil {
		t.Fatalf("expected error for non-string key")
	}
	if _, err := FromDecoded(uint64(math.MaxUint64)); err == nil {
		t.Fatalf("expected overflow error")
	}
	if _, err := FromDecoded(struct{}{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	got, err := FromDecoded(map[any]any{"k": []any{uint64(3)}})
	if err != nil {
		t.Fatalf("FromDecoded: %v", err)
	}
	if !reflect.DeepEqual(got, Map{"k": List{Int(3)}}) {
		t.Fatalf("got %#v", got)
	}
}

func TestEncodeDecodeCBOR(t *testing.T) {
	c, err := codec.CBOR()
	if err != nil {
		t.Fatalf("cbor: %v", err)
	}
	in := Map{
		"i":     Int(math.MinInt64),
		"f":     Float(0.1),
		"whole": Float(2),
		"s":     String("héllo"),
		"l":     List{},
		"m":     Map{},
		"n":     Null{},
	}
	b, err := Encode(c, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(c, b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("roundtrip mismatch:\n got %#v\nwant %#v", out, in)
	}
	if _, err := Decode(c, []byte{0xff}); err == nil {
		t.Fatalf("expected decode error on malformed input")
	}
}

func TestMapKeysSorted(t *testing.T) {
	keys := Map{"b": Null{}, "a": Null{}, "c": Null{}}.Keys()
	if !reflect.DeepEqual(keys, []string{"a", "b", "c"}) {
		t.Fatalf("keys = %v", keys)
	}
	if KindMap.String() != "map" || Float(1).Kind() != KindFloat {
		t.Fatalf("kind plumbing broken")
	}
}
