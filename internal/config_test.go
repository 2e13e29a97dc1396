package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/protweight/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token: err = %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestConfigValidate_Sections(t *testing.T) {
	cases := map[string]func(c *Config){
		"log format":       func(c *Config) { c.App.LogFormat = "xml" },
		"port":             func(c *Config) { c.App.HTTP.Port = 0 },
		"graphs path":      func(c *Config) { c.Graphs.Path = "" },
		"layout":           func(c *Config) { c.Graphs.Layout = "deep" },
		"driver":           func(c *Config) { c.Cache.Driver = "redis" },
		"sqlite path":      func(c *Config) { c.Cache.Path = "" },
		"max entries":      func(c *Config) { c.Cache.MaxEntries = -1 },
		"weight factor":    func(c *Config) { c.Query.WeightFactor = 0 },
		"default k":        func(c *Config) { c.Query.DefaultK = 0 },
		"timeout":          func(c *Config) { c.Query.DefaultTimeout = -time.Second },
		"algorithm":        func(c *Config) { c.Query.DefaultAlgorithm = "astar" },
		"variant limit":    func(c *Config) { c.Query.VariantLimit = -1 },
		"auth token empty": func(c *Config) { c.Auth.Mode = AuthModeToken },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	cfg := NewDefaultConfig()
	cfg.Cache = CacheConfig{Driver: CacheDriverBadger}
	if err := cfg.Validate(); err != nil {
		t.Errorf("badger without path should be allowed: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("PROTWEIGHT_TEST_TOKEN", "s3cret")
	data := `
app:
  log_level: debug
  log_format: text
  http:
    port: 9090
  shutdown_timeout: 3s
graphs:
  path: /data/graphs
  layout: flat
  watch: false
cache:
  driver: badger
  path: /data/bounds
query:
  weight_factor: 1000000000
  default_k: 4
  default_timeout: 30s
  max_timeout: 2m
  default_algorithm: top_sort_attrs
  variant_type: VARIANT
  variant_limit: 2
auth:
  mode: token
  token: ${PROTWEIGHT_TEST_TOKEN}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.HTTP.Port != 9090 || cfg.App.LogFormat != LogFormatText || cfg.App.ShutdownTimeout != 3*time.Second {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Graphs.Layout != "flat" || cfg.Graphs.Watch {
		t.Errorf("graphs = %+v", cfg.Graphs)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("token = %q, want env expansion", cfg.Auth.Token)
	}
	s := cfg.Query.Settings()
	if s.WeightFactor != 1e9 || s.DefaultK != 4 || s.MaxTimeout != 2*time.Minute || s.DefaultAlgorithm != "top_sort_attrs" {
		t.Errorf("settings = %+v", s)
	}
	// Untouched fields keep their defaults.
	if cfg.Cache.MaxEntries != NewDefaultConfig().Cache.MaxEntries || cfg.App.EventThrottle != 2*time.Second {
		t.Errorf("defaults lost: %+v %+v", cfg.Cache, cfg.App)
	}
}
