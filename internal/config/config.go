package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MEDBILL_"

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Audit   AuditConfig   `koanf:"audit"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

// AuditConfig points the audit dispatcher at a model inference endpoint.
// APIKey may contain ${VAR} references resolved from the environment at
// load time, so keys can live outside config files.
type AuditConfig struct {
	EndpointURL    string `koanf:"endpoint_url"`
	APIKey         string `koanf:"api_key"`
	TimeoutSeconds int    `koanf:"timeout_seconds"`
	DefaultModel   string `koanf:"default_model"`
}

// Load reads config.yaml if present, then applies MEDBILL_ environment
// variables on top. Double underscores in variable names separate nested
// keys, e.g. MEDBILL_SERVER__PORT sets server.port.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8000)
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "medical_billing.db")
	}
	if !k.Exists("audit.timeout_seconds") {
		k.Set("audit.timeout_seconds", 60)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.Audit.APIKey = substituteEnvVars(cfg.Audit.APIKey)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
