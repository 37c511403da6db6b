package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "shp.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SHP_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.Protocol != def.Protocol || cfg.Cache != def.Cache || cfg.Metrics != def.Metrics {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.Log.Level != "info" || len(cfg.Log.Outputs) != 1 {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
app_name: bench
log:
  level: debug
  format: json
protocol:
  serializer: JSON
  call_compress_bytes: 512
  compression_level: 6
cache:
  max_bytes: 1048576
  ttl: 5m
metrics:
  enable: true
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "bench" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("top-level/log: %+v", cfg)
	}
	if cfg.Protocol.Serializer != "json" || cfg.Protocol.CallCompressBytes != 512 || cfg.Protocol.CompressionLevel != 6 {
		t.Fatalf("protocol: %+v", cfg.Protocol)
	}
	if cfg.Protocol.CompressMinBytes != 100 {
		t.Fatalf("unset key lost its default: %+v", cfg.Protocol)
	}
	if cfg.Cache.MaxBytes != 1<<20 || cfg.Cache.TTL != 5*time.Minute || cfg.Cache.Shards != 256 {
		t.Fatalf("cache: %+v", cfg.Cache)
	}
	if !cfg.Metrics.Enable || cfg.Metrics.Namespace != "shp" {
		t.Fatalf("metrics: %+v", cfg.Metrics)
	}
}

func TestEnvOverrides(t *testing.T) {
	p := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("SHP_LOG_LEVEL", "warn")
	t.Setenv("SHP_PROTOCOL_SERIALIZER", "json")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Protocol.Serializer != "json" {
		t.Fatalf("env not applied: level=%s serializer=%s", cfg.Log.Level, cfg.Protocol.Serializer)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	p := writeConfig(t, "app_name: from-env\n")
	t.Setenv("SHP_CONFIG", p)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppName != "from-env" {
		t.Fatalf("app_name = %q", cfg.AppName)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"level":      "log:\n  level: loud\n",
		"serializer": "protocol:\n  serializer: xml\n",
		"zlib level": "protocol:\n  compression_level: 12\n",
		"ttl":        "cache:\n  ttl: -1s\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	if _, err := Load(writeConfig(t, "log: [unclosed\n")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestZeroThresholdsUseDefaults(t *testing.T) {
	p := writeConfig(t, `
protocol:
  compress_min_bytes: 0
  call_compress_bytes: 0
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Protocol.CompressMinBytes != 100 || cfg.Protocol.CallCompressBytes != 200 {
		t.Fatalf("thresholds = %d/%d, want 100/200",
			cfg.Protocol.CompressMinBytes, cfg.Protocol.CallCompressBytes)
	}
}
