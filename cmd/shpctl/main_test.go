package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHP_CONFIG", "")
	t.Setenv("SHP_LOG_LEVEL", "error")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncodeCallThenDecodeHex(t *testing.T) {
	hexFrame, err := run(t, "", "encode-call", "hope_feel", "--args", `{"joy":0.9,"n":3}`)
	if err != nil {
		t.Fatalf("encode-call: %v\n%s", err, hexFrame)
	}
	if !strings.HasPrefix(hexFrame, "484f5045") {
		t.Fatalf("frame does not start with magic: %s", hexFrame)
	}
	out, err := run(t, hexFrame, "decode", "--hex")
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !strings.Contains(out, "EXECUTE v3.0.0 seq=1") {
		t.Fatalf("header line missing:\n%s", out)
	}
	if !strings.Contains(out, `call:   hope_feel (0x09) {"joy":0.9,"n":3}`) {
		t.Fatalf("call line missing:\n%s", out)
	}
}

func TestEncodeResultToFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "result.bin")
	if out, err := run(t, "", "encode-result", "--result", `{"ok":true}`, "--seq", "7", "-o", p); err != nil {
		t.Fatalf("encode-result: %v\n%s", err, out)
	}
	out, err := run(t, "", "decode", p)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !strings.Contains(out, "RESPONSE") || !strings.Contains(out, "seq=7") || !strings.Contains(out, `result: {"ok":true}`) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestGenFramesDecodeWithChainStore(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "genframes", "-o", dir)
	if err != nil {
		t.Fatalf("genframes: %v\n%s", err, out)
	}
	for _, name := range []string{"call_feel.bin", "call_remember_z.bin", "call_ref.bin", "result_feel.bin", "stream_control.bin"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}

	out, err = run(t, "", "decode", filepath.Join(dir, "call_ref.bin"), "--store", `people={"Bob":"Colleague"}`)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !strings.Contains(out, `ref:    chain:1:people => {"Bob":"Colleague"}`) {
		t.Fatalf("reference not resolved:\n%s", out)
	}

	out, err = run(t, "", "decode", filepath.Join(dir, "stream_control.bin"))
	if err != nil {
		t.Fatalf("decode stream: %v\n%s", err, out)
	}
	if !strings.Contains(out, "frame 0: HEARTBEAT") || !strings.Contains(out, "frame 1: MEMORY_WRITE") {
		t.Fatalf("stream frames missing:\n%s", out)
	}
	if !strings.Contains(out, "chain:latest (unresolved)") {
		t.Fatalf("empty chain should leave the reference unresolved:\n%s", out)
	}

	out, err = run(t, "", "decode", filepath.Join(dir, "call_remember_z.bin"))
	if err != nil || !strings.Contains(out, "flags=0x0004") {
		t.Fatalf("compressed frame: %v\n%s", err, out)
	}
}

func TestDecodeRejectsCorruptFrame(t *testing.T) {
	dir := t.TempDir()
	if out, err := run(t, "", "genframes", "-o", dir); err != nil {
		t.Fatalf("genframes: %v\n%s", err, out)
	}
	p := filepath.Join(dir, "call_feel.bin")
	b, _ := os.ReadFile(p)
	b[len(b)-1] ^= 0xFF
	os.WriteFile(p, b, 0o644)

	out, err := run(t, "", "decode", p)
	if err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Fatalf("expected checksum error, got %v\n%s", err, out)
	}
	if _, err := run(t, "", "decode", "--hex"); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestBench(t *testing.T) {
	out, err := run(t, "", "bench", "-n", "20")
	if err != nil {
		t.Fatalf("bench: %v\n%s", err, out)
	}
	for _, want := range []string{"Tool call encode/decode", "Result encode/decode", "Memory chain vs full context", "hit rate"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestBenchWithMetrics(t *testing.T) {
	t.Setenv("SHP_METRICS_ENABLE", "true")
	out, err := run(t, "", "bench", "-n", "10")
	if err != nil {
		t.Fatalf("bench: %v\n%s", err, out)
	}
	if !strings.Contains(out, "shp_codec_encoded_messages_total") || !strings.Contains(out, "shp_cache_entries") {
		t.Fatalf("metrics not dumped:\n%s", out)
	}
}

func TestOps(t *testing.T) {
	out, err := run(t, "", "ops")
	if err != nil {
		t.Fatalf("ops: %v", err)
	}
	if !strings.Contains(out, "0x09  hope_feel") || !strings.Contains(out, "0xff  unknown_255") {
		t.Fatalf("ops output:\n%s", out)
	}
}
