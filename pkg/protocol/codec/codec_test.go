package codec

import (
	"encoding/json"
	"testing"
)

func TestJSONCodec(t *testing.T) {
	c := JSON()
	in := map[string]any{"a": 1, "b": "x", "c": 0.5}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["a"].(json.Number) != "1" || out["b"].(string) != "x" || out["c"].(json.Number) != "0.5" {
		t.Fatalf("roundtrip mismatch: %#v", out)
	}
	if err := c.Unmarshal([]byte(`{"a":1} {"b":2}`), &out); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestCBORCodec(t *testing.T) {
	c, err := CBOR()
	if err != nil {
		t.Fatalf("new cbor: %v", err)
	}
	in := map[string]any{"n": 42, "neg": -7, "f": 0.25, "nested": map[string]any{"ok": true}}
	b, err := c.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := c.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("decoded %T, want map[string]any", out)
	}
	if m["n"] != int64(42) || m["neg"] != int64(-7) || m["f"] != 0.25 {
		t.Fatalf("roundtrip mismatch: %#v", m)
	}
	if nested, ok := m["nested"].(map[string]any); !ok || nested["ok"] != true {
		t.Fatalf("nested map decoded as %T", m["nested"])
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	c, _ := CBOR()
	a, _ := c.Marshal(map[string]any{"z": 1, "a": 2, "m": 3})
	b, _ := c.Marshal(map[string]any{"m": 3, "z": 1, "a": 2})
	if string(a) != string(b) {
		t.Fatalf("encoding depends on map order")
	}
}

func TestRegistryLookup(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	for _, name := range []string{"cbor", "CBOR", "application/cbor", "json"} {
		if _, err := r.Lookup(name); err != nil {
			t.Fatalf("lookup %s: %v", name, err)
		}
	}
	if _, err := r.Lookup("protobuf"); err == nil {
		t.Fatalf("expected unknown serializer error")
	}
	if r.Get(ContentCBOR) == nil || len(r.Types()) != 2 {
		t.Fatalf("types = %v", r.Types())
	}
}
