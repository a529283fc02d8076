package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Generation.Backend != BackendStub {
		t.Errorf("expected default backend %q, got %q", BackendStub, cfg.Generation.Backend)
	}

	if cfg.Generation.Timeout != 2*time.Minute {
		t.Errorf("expected generation timeout 2m, got %v", cfg.Generation.Timeout)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected driver sqlite, got %q", cfg.Database.Driver)
	}

	if cfg.Cleanup.Workers != 2 || cfg.Cleanup.QueueSize != 64 {
		t.Errorf("unexpected cleanup defaults: %+v", cfg.Cleanup)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %q", cfg.Log.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadFromPath(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /tmp/planr.db
  driver: sqlite3
generation:
  backend: bedrock
  model: claude-haiku-4-5-20251001
  timeout: 45s
anthropic:
  api_key: test-key
aws:
  region: us-west-2
  profile: dev
mirror:
  endpoint: https://mirror.example.com/api
  token: tok
cleanup:
  workers: 4
  queue_size: 8
log:
  level: debug
  file: "-"
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/planr.db" || cfg.Database.Driver != "sqlite3" {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Generation.Backend != BackendBedrock {
		t.Errorf("expected backend bedrock, got %q", cfg.Generation.Backend)
	}
	if cfg.Generation.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("unexpected model %q", cfg.Generation.Model)
	}
	if cfg.Generation.Timeout != 45*time.Second {
		t.Errorf("expected timeout 45s, got %v", cfg.Generation.Timeout)
	}
	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}
	if cfg.AWS.Region != "us-west-2" || cfg.AWS.Profile != "dev" {
		t.Errorf("unexpected aws config: %+v", cfg.AWS)
	}
	if cfg.Mirror.Endpoint != "https://mirror.example.com/api" || cfg.Mirror.Token != "tok" {
		t.Errorf("unexpected mirror config: %+v", cfg.Mirror)
	}
	if cfg.Cleanup.Workers != 4 || cfg.Cleanup.QueueSize != 8 {
		t.Errorf("unexpected cleanup config: %+v", cfg.Cleanup)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.Log.Level)
	}
	if got := cfg.LogPath("/repo"); got != "" {
		t.Errorf("expected stderr logging, got %q", got)
	}
}

func TestLoadFromPath_KeepsDefaults(t *testing.T) {
	cfg, err := LoadFromPath(writeConfig(t, "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("expected warn, got %q", cfg.Log.Level)
	}
	if cfg.Generation.Backend != BackendStub {
		t.Errorf("expected default backend, got %q", cfg.Generation.Backend)
	}
	if cfg.Cleanup.Workers != 2 {
		t.Errorf("expected default workers, got %d", cfg.Cleanup.Workers)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	t.Setenv("PLANR_GENERATION_BACKEND", "anthropic")
	t.Setenv("PLANR_CLEANUP_WORKERS", "6")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	cfg, err := LoadFromPath(writeConfig(t, "generation:\n  backend: stub\n"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Generation.Backend != BackendAnthropic {
		t.Errorf("expected env backend, got %q", cfg.Generation.Backend)
	}
	if cfg.Cleanup.Workers != 6 {
		t.Errorf("expected env workers 6, got %d", cfg.Cleanup.Workers)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("expected env api key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath_ExpandsReferences(t *testing.T) {
	t.Setenv("PLANR_TEST_MIRROR_TOKEN", "expanded")

	cfg, err := LoadFromPath(writeConfig(t, "mirror:\n  token: ${PLANR_TEST_MIRROR_TOKEN}\n"))
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Mirror.Token != "expanded" {
		t.Errorf("expected expanded token, got %q", cfg.Mirror.Token)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"unknown backend", "generation:\n  backend: openai\n", ErrUnknownBackend},
		{"bad driver", "database:\n  driver: postgres\n", nil},
		{"zero workers", "cleanup:\n  workers: 0\n", nil},
		{"negative timeout", "generation:\n  timeout: -1s\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_ProjectOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ProjectConfigName), []byte("log:\n  level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected project override, got %q", cfg.Log.Level)
	}
	if GetProjectConfigPath() == "" {
		t.Error("expected the project config to be found")
	}
}

func TestPaths(t *testing.T) {
	cfg := Default()

	if got := cfg.DatabasePath("/repo"); got != filepath.Join("/repo", ".planr", "state.db") {
		t.Errorf("unexpected database path %q", got)
	}
	if got := cfg.LogPath("/repo"); got != filepath.Join("/repo", ".planr", "logs", "planr.log") {
		t.Errorf("unexpected log path %q", got)
	}

	cfg.Database.Path = "/elsewhere.db"
	cfg.Log.File = "/var/log/planr.log"
	if cfg.DatabasePath("/repo") != "/elsewhere.db" {
		t.Error("explicit database path should win")
	}
	if cfg.LogPath("/repo") != "/var/log/planr.log" {
		t.Error("explicit log file should win")
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := getUserConfigDir(); got != "/tmp/xdg/planr" {
		t.Errorf("expected /tmp/xdg/planr, got %q", got)
	}
	if got := GetUserConfigPath(); got != "/tmp/xdg/planr/config.yaml" {
		t.Errorf("unexpected user config path %q", got)
	}
}
