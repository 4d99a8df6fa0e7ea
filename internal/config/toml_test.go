package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if cfg.Check.Workers != nil || cfg.Store.Path != nil {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[check]
workers = 8
record = true

[fetch]
dir = "maps"
rate-limit = 10

[store]
path = "/tmp/h.db"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Check.Workers == nil || *cfg.Check.Workers != 8 {
		t.Errorf("workers = %v", cfg.Check.Workers)
	}
	if cfg.Check.Record == nil || !*cfg.Check.Record {
		t.Errorf("record = %v", cfg.Check.Record)
	}
	if cfg.Check.FailDir != nil {
		t.Errorf("fail-dir should be unset, got %q", *cfg.Check.FailDir)
	}
	if cfg.Fetch.Dir == nil || *cfg.Fetch.Dir != "maps" || *cfg.Fetch.RateLimit != 10 {
		t.Errorf("fetch = %+v", cfg.Fetch)
	}
	if cfg.Store.Path == nil || *cfg.Store.Path != "/tmp/h.db" {
		t.Errorf("store = %+v", cfg.Store)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Error("empty path accepted")
	}
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	os.WriteFile(bad, []byte("[check\nworkers = 1"), 0o644)
	if _, err := LoadConfig(bad); err == nil {
		t.Error("malformed toml accepted")
	}
	unknown := filepath.Join(dir, "unknown.toml")
	os.WriteFile(unknown, []byte("[check]\nthreads = 1\n"), 0o644)
	if _, err := LoadConfig(unknown); err == nil {
		t.Error("unknown key accepted")
	}
}

func TestTemplateParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(DefaultTemplate()), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("template does not load: %v", err)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if p := DefaultConfigPath(); p != filepath.Join("/cfg", "osucodec", "config.toml") {
		t.Errorf("config path = %s", p)
	}
	if p := DefaultDBPath(); p != filepath.Join("/data", "osucodec", "history.db") {
		t.Errorf("db path = %s", p)
	}
}
