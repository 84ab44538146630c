package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	origPort := os.Getenv("MEDBILL_SERVER__PORT")
	defer func() {
		if origPort != "" {
			os.Setenv("MEDBILL_SERVER__PORT", origPort)
		} else {
			os.Unsetenv("MEDBILL_SERVER__PORT")
		}
	}()

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("MEDBILL_SERVER__PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8000 {
			t.Errorf("Load() port = %v, want 8000", cfg.Server.Port)
		}
		if cfg.Storage.SQLite.Path != "medical_billing.db" {
			t.Errorf("Load() sqlite path = %v", cfg.Storage.SQLite.Path)
		}
		if cfg.Audit.TimeoutSeconds != 60 {
			t.Errorf("Load() audit timeout = %v, want 60", cfg.Audit.TimeoutSeconds)
		}
	})

	t.Run("env var override", func(t *testing.T) {
		os.Setenv("MEDBILL_SERVER__PORT", "9000")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 9000 {
			t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
		}
	})

	t.Run("nested audit keys", func(t *testing.T) {
		os.Setenv("MEDBILL_AUDIT__DEFAULT_MODEL", "claude-3-haiku")
		defer os.Unsetenv("MEDBILL_AUDIT__DEFAULT_MODEL")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Audit.DefaultModel != "claude-3-haiku" {
			t.Errorf("Load() default model = %v", cfg.Audit.DefaultModel)
		}
	})
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `server:
  port: 8443
audit:
  endpoint_url: https://inference.example.com/invoke
  api_key: ${MEDBILL_TEST_KEY}
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	os.Setenv("MEDBILL_TEST_KEY", "secret-123")
	defer os.Unsetenv("MEDBILL_TEST_KEY")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("port = %v, want 8443", cfg.Server.Port)
	}
	if cfg.Audit.EndpointURL != "https://inference.example.com/invoke" {
		t.Errorf("endpoint = %v", cfg.Audit.EndpointURL)
	}
	if cfg.Audit.APIKey != "secret-123" {
		t.Errorf("api key = %v, want substituted value", cfg.Audit.APIKey)
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	os.Setenv("TEST_VAR", "test-value")
	defer os.Unsetenv("TEST_VAR")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple substitution", input: "${TEST_VAR}", want: "test-value"},
		{name: "substitution in string", input: "prefix-${TEST_VAR}-suffix", want: "prefix-test-value-suffix"},
		{name: "no substitution", input: "plain-string", want: "plain-string"},
		{name: "undefined var", input: "${UNDEFINED_VAR}", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
