package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Backend.Endpoint != "ws://localhost:8765" {
		t.Errorf("Endpoint = %q, want ws://localhost:8765", cfg.Backend.Endpoint)
	}
	if cfg.Backend.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", cfg.Backend.MaxReconnectAttempts)
	}
	if got := cfg.Backend.Delay(); got != 3*time.Second {
		t.Errorf("Delay() = %v, want 3s", got)
	}
	if cfg.DevServer.Port != 8765 {
		t.Errorf("DevServer.Port = %d, want 8765", cfg.DevServer.Port)
	}
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.Endpoint != "ws://localhost:8765" {
		t.Errorf("Endpoint = %q, want default", cfg.Backend.Endpoint)
	}
}

func TestLoadValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lectern.toml")

	content := `
[backend]
endpoint = "ws://tutor.example:9000"
reconnect_delay = "500ms"
max_reconnect_attempts = 3

[log]
level = "debug"
format = "text"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.Endpoint != "ws://tutor.example:9000" {
		t.Errorf("Endpoint = %q, want override", cfg.Backend.Endpoint)
	}
	if got := cfg.Backend.Delay(); got != 500*time.Millisecond {
		t.Errorf("Delay() = %v, want 500ms", got)
	}
	if cfg.Backend.MaxReconnectAttempts != 3 {
		t.Errorf("MaxReconnectAttempts = %d, want 3", cfg.Backend.MaxReconnectAttempts)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lectern.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load: expected parse error, got nil")
	}
}

func TestDelayFallsBackOnGarbage(t *testing.T) {
	b := BackendConfig{ReconnectDelay: "soon"}
	if got := b.Delay(); got != 3*time.Second {
		t.Errorf("Delay() = %v, want 3s fallback", got)
	}
}

func TestDataDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LECTERN_DATA_DIR", dir)
	if got := DataDir(); got != dir {
		t.Errorf("DataDir() = %q, want %q", got, dir)
	}
}
