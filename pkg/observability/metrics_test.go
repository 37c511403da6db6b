package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"silenthope/pkg/cache"
	"silenthope/pkg/protocol"
	"silenthope/pkg/value"
)

func TestCodecMetricsThroughCallCodec(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewCodecMetrics(reg, "shp")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	c, err := protocol.NewCallCodec(protocol.CallOptions{Recorder: m})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	b, _ := c.EncodeCall("hope_feel", map[string]any{"joy": 0.9})
	big, _ := c.EncodeCall("hope_think", map[string]any{"t": strings.Repeat("hope ", 100)})
	if _, err := c.DecodeCall(b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	bad := append([]byte(nil), b...)
	bad[len(bad)-1] ^= 0xFF
	c.DecodeCall(bad)
	c.DecodeCall(b[:5])

	if got := testutil.ToFloat64(m.encoded.WithLabelValues("EXECUTE")); got != 2 {
		t.Fatalf("encoded = %v", got)
	}
	if got := testutil.ToFloat64(m.decoded.WithLabelValues("EXECUTE")); got != 1 {
		t.Fatalf("decoded = %v", got)
	}
	if got := testutil.ToFloat64(m.compressed); got != 1 {
		t.Fatalf("compressed = %v", got)
	}
	if got := testutil.ToFloat64(m.wireBytes.WithLabelValues("out")); got != float64(len(b)+len(big)) {
		t.Fatalf("out bytes = %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("checksum")); got != 1 {
		t.Fatalf("checksum rejects = %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("short_header")); got != 1 {
		t.Fatalf("short header rejects = %v", got)
	}
}

func TestCodecMetricsDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewCodecMetrics(reg, "shp"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := NewCodecMetrics(reg, "shp"); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestCacheGauges(t *testing.T) {
	c, err := cache.New(cache.Options{})
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	defer c.Close()
	reg := prometheus.NewRegistry()
	if err := RegisterCacheGauges(reg, "shp", c); err != nil {
		t.Fatalf("register: %v", err)
	}
	c.Set("people", value.String("Bob"))
	c.Get("people")
	c.Get("nobody")

	expected := `
# HELP shp_cache_entries Live cache entries.
# TYPE shp_cache_entries gauge
shp_cache_entries 1
# HELP shp_cache_hit_ratio Hits over lookups.
# TYPE shp_cache_hit_ratio gauge
shp_cache_hit_ratio 0.5
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "shp_cache_entries", "shp_cache_hit_ratio"); err != nil {
		t.Fatalf("gauges: %v", err)
	}
}
