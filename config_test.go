//go:build unit

package cassp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ServerURL: "https://cas.example.edu/cas",
		Cookie:    CookieConfig{Secret: "test-secret"},
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Protocol != ProtocolCAS2 {
		t.Errorf("Protocol default = %q, want cas2", cfg.Protocol)
	}
	if cfg.TicketStore.Backend != BackendMemory {
		t.Errorf("Backend default = %q, want memory", cfg.TicketStore.Backend)
	}
}

func TestConfig_ValidateTrimsServerURL(t *testing.T) {
	cfg := validConfig()
	cfg.ServerURL = "https://cas.example.edu/cas/"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ServerURL != "https://cas.example.edu/cas" {
		t.Errorf("ServerURL = %q, trailing slash should be dropped", cfg.ServerURL)
	}
	if cfg.LoginURL() != "https://cas.example.edu/cas/login" {
		t.Errorf("LoginURL = %q", cfg.LoginURL())
	}
}

func TestConfig_ValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing server url", func(c *Config) { c.ServerURL = "" }},
		{"unknown protocol", func(c *Config) { c.Protocol = "cas4" }},
		{"missing cookie secret", func(c *Config) { c.Cookie.Secret = "" }},
		{"unknown backend", func(c *Config) { c.TicketStore.Backend = "dynamo" }},
		{"redis without addr", func(c *Config) { c.TicketStore.Backend = BackendRedis }},
		{"leveldb without path", func(c *Config) { c.TicketStore.Backend = BackendLevelDB }},
		{"proxy callback on cas1", func(c *Config) {
			c.Protocol = ProtocolCAS1
			c.ProxyCallbackURL = "https://app.example.edu/pgt"
		}},
		{"negative timeout", func(c *Config) { c.TicketTimeout = -time.Minute }},
		{"negative tolerance", func(c *Config) { c.Tolerance = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate should fail")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Code != ErrCodeConfig {
				t.Errorf("error = %v, want config error", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.yaml")
	content := `server_url: https://cas.example.edu/cas/
protocol: saml11
gateway: true
ticket_timeout: 2h
tolerance: 5s
cookie:
  name: my_session
  secret: file-secret
ticket_store:
  backend: leveldb
  leveldb:
    path: /var/lib/app/tickets
sweep_schedule: "@every 5m"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Protocol != ProtocolSAML11 || !cfg.Gateway {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TicketTimeout != 2*time.Hour || cfg.Tolerance != 5*time.Second {
		t.Errorf("durations = %v, %v", cfg.TicketTimeout, cfg.Tolerance)
	}
	if cfg.Cookie.Name != "my_session" {
		t.Errorf("Cookie.Name = %q", cfg.Cookie.Name)
	}
	if cfg.TicketStore.Backend != BackendLevelDB || cfg.TicketStore.LevelDB.Path != "/var/lib/app/tickets" {
		t.Errorf("ticket store = %+v", cfg.TicketStore)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadConfig should fail for a missing file")
	}
}
