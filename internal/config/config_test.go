package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Analysis.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("unexpected base url %q", cfg.Analysis.BaseURL)
	}
	if cfg.Analysis.Timeout != 60*time.Second {
		t.Errorf("unexpected timeout %v", cfg.Analysis.Timeout)
	}
	if cfg.Session.StrictParsing {
		t.Error("strict parsing should be off by default")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permlab.yaml")
	os.WriteFile(path, []byte(`
analysis:
  base_url: http://regression:8000
  timeout: 5s
session:
  strict_parsing: true
watch:
  dir: /srv/drafts
  extensions: [".yaml"]
`), 0644)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := Default()
	want.Analysis.BaseURL = "http://regression:8000"
	want.Analysis.Timeout = 5 * time.Second
	want.Session.StrictParsing = true
	want.Watch.Dir = "/srv/drafts"
	want.Watch.Extensions = []string{".yaml"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/permlab.yaml"); err == nil {
		t.Error("should error on missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("analysis: [1, 2"), 0644)
	if _, err := LoadConfig(path); err == nil {
		t.Error("should error on malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PERMLAB_ANALYSIS_BASE_URL":      "http://env:9000",
		"PERMLAB_ANALYSIS_TIMEOUT":       "2s",
		"PERMLAB_SESSION_STRICT_PARSING": "true",
		"PERMLAB_WATCH_EXTENSIONS":       ".json, .yml",
		"PERMLAB_LOG_LEVEL":              "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg Config
	if err := cfg.applyEnv(lookup); err != nil {
		t.Fatalf("applyEnv failed: %v", err)
	}
	cfg.applyDefaults()

	if cfg.Analysis.BaseURL != "http://env:9000" || cfg.Analysis.Timeout != 2*time.Second {
		t.Errorf("analysis overrides not applied: %+v", cfg.Analysis)
	}
	if !cfg.Session.StrictParsing {
		t.Error("strict parsing override not applied")
	}
	if diff := cmp.Diff([]string{".json", ".yml"}, cfg.Watch.Extensions); diff != "" {
		t.Errorf("extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("blank override should fall back to default, got %q", cfg.Log.Level)
	}
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, key := range []string{
		"PERMLAB_ANALYSIS_TIMEOUT",
		"PERMLAB_ANALYSIS_MAX_BODY_BYTES",
		"PERMLAB_SESSION_STRICT_PARSING",
	} {
		lookup := func(k string) (string, bool) {
			if k == key {
				return "bogus", true
			}
			return "", false
		}
		var cfg Config
		if err := cfg.applyEnv(lookup); err == nil {
			t.Errorf("%s: expected error", key)
		}
	}
}

func TestMetricsListenAddr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permlab.yaml")
	os.WriteFile(path, []byte("server:\n  metrics_addr: off\n"), 0644)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := cfg.Server.MetricsListenAddr(); got != "" {
		t.Errorf("metrics should be disabled from YAML, got %q", got)
	}

	var fromEnv Config
	fromEnv.applyEnv(func(k string) (string, bool) {
		if k == "PERMLAB_SERVER_METRICS_ADDR" {
			return "OFF", true
		}
		return "", false
	})
	fromEnv.applyDefaults()
	if got := fromEnv.Server.MetricsListenAddr(); got != "" {
		t.Errorf("metrics should be disabled from env, got %q", got)
	}

	if got := Default().Server.MetricsListenAddr(); got != "127.0.0.1:9090" {
		t.Errorf("unexpected default metrics address %q", got)
	}
}
