package config

import (
	"errors"
	"testing"
)

func TestResolveAPIKey(t *testing.T) {
	t.Run("from environment", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env-key")

		key, source, err := ResolveAPIKey(&Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "sk-ant-env-key" || source != KeySourceEnv {
			t.Errorf("got %q from %s, want env key from environment", key, source)
		}
	})

	t.Run("from config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		key, source, err := ResolveAPIKey(&Config{Anthropic: AnthropicConfig{APIKey: "sk-ant-config-key"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "sk-ant-config-key" || source != KeySourceConfig {
			t.Errorf("got %q from %s, want config key from config_file", key, source)
		}
	})

	t.Run("unexpanded reference", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		_, source, err := ResolveAPIKey(&Config{Anthropic: AnthropicConfig{APIKey: "${PLANR_MISSING_KEY}"}})
		if !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
		if source != KeySourceNone {
			t.Errorf("expected KeySourceNone, got %s", source)
		}
	})

	t.Run("nil config", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")

		if _, _, err := ResolveAPIKey(nil); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"valid key", "sk-ant-REDACTED", "sk-ant-...wxyz"},
		{"empty key", "", "(not set)"},
		{"short key", "short", "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskAPIKey(tt.key); got != tt.expected {
				t.Errorf("MaskAPIKey() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":                  "(not set)",
		"abc":               "***",
		"mirror-token-1234": "***1234",
	}
	for in, want := range tests {
		if got := MaskToken(in); got != want {
			t.Errorf("MaskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
