package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  host: 0.0.0.0
  port: 9090
storage:
  database_path: /tmp/kensaku/entities.db
  watch_database: true
search:
  ttl_seconds: 60
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("debug not parsed")
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/tmp/kensaku/entities.db" {
		t.Errorf("database path = %q", cfg.Storage.DatabasePath)
	}
	if !cfg.Storage.WatchDatabase {
		t.Error("watch_database not parsed")
	}
	if cfg.Search.TTLSeconds != 60 {
		t.Errorf("search = %+v", cfg.Search)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "debug: false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != "/usr/local/var/kensaku/data/db/entities.db" {
		t.Errorf("database path default = %q", cfg.Storage.DatabasePath)
	}
	if cfg.Storage.WatchDatabase {
		t.Error("watch_database must default to off")
	}
	if cfg.Search.TTLSeconds != 300 {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
}

func TestLoadRelativePath(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: ./data/entities.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "data/entities.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
