package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"demos/internal/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Business.Timezone != "America/New_York" {
		t.Fatalf("unexpected timezone %q", cfg.Business.Timezone)
	}
	if cfg.Server.BasePath != "/v0" {
		t.Fatalf("unexpected base path %q", cfg.Server.BasePath)
	}
}

func TestFromYAMLKeepsDefaults(t *testing.T) {
	cfg, err := config.FromYAML([]byte("log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level not applied: %q", cfg.Log.Level)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Server.Addr == "" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"driver":   "database:\n  driver: oracle\n",
		"pg dsn":   "database:\n  driver: postgres\n",
		"tz":       "business:\n  timezone: Mars/Olympus\n",
		"format":   "log:\n  format: xml\n",
		"hook url": "webhooks:\n  - url: ftp://example.com\n",
		"basepath": "server:\n  base_path: v0\n",
	}
	for name, doc := range cases {
		if _, err := config.FromYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestWebhookWants(t *testing.T) {
	h := config.Webhook{URL: "http://example.com", Events: []string{"phase.*", "dates.updated"}}
	for evt, want := range map[string]bool{
		"phase.completed":     true,
		"phase.started":       true,
		"dates.updated":       true,
		"document.added":      false,
		"application.created": false,
	} {
		if got := h.Wants(evt); got != want {
			t.Fatalf("Wants(%s)=%v, want %v", evt, got, want)
		}
	}
	if !(config.Webhook{}).Wants("anything") {
		t.Fatalf("empty event list should match everything")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.LoadOptional(dir)
	if err != nil || cfg == nil {
		t.Fatalf("missing file should yield defaults: %v", err)
	}
	if _, err := config.Load(dir); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "demos.yml"), []byte("server:\n  addr: 0.0.0.0:9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("addr not loaded: %q", cfg.Server.Addr)
	}
}
