package cassp

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/philiph/go-cas-sp/internal/core/domain"
)

// Protocol selects the validation wire protocol.
const (
	ProtocolCAS1   = "cas1"
	ProtocolCAS2   = "cas2"
	ProtocolSAML11 = "saml11"
)

// Ticket store backends.
const (
	BackendMemory  = "memory"
	BackendRedis   = "redis"
	BackendLevelDB = "leveldb"
)

// Config is the YAML-mapped client configuration.
type Config struct {
	// ServerURL is the CAS server prefix, e.g.
	// "https://cas.example.edu/cas". Endpoint paths are appended to it.
	ServerURL string `yaml:"server_url"`

	// Protocol picks the validator: cas1, cas2 (default), or saml11.
	Protocol string `yaml:"protocol"`

	// ServiceURL overrides the service URL sent to the server. When empty
	// each request's own URL is used.
	ServiceURL string `yaml:"service_url"`

	// Renew demands fresh credentials on every authentication.
	Renew bool `yaml:"renew"`

	// Gateway enables silent authentication attempts.
	Gateway bool `yaml:"gateway"`

	// TicketTimeout bounds stored ticket validity. Zero means the
	// middleware default.
	TicketTimeout time.Duration `yaml:"ticket_timeout"`

	// Tolerance absorbs clock drift when checking SAML assertion windows.
	Tolerance time.Duration `yaml:"tolerance"`

	// ProxyCallbackURL, when set, is sent as pgtUrl during CAS2 validation
	// and enables proxy ticket retrieval.
	ProxyCallbackURL string `yaml:"proxy_callback_url"`

	// ArtifactParameter and ServiceParameter override the protocol's
	// default query parameter names.
	ArtifactParameter string `yaml:"artifact_parameter"`
	ServiceParameter  string `yaml:"service_parameter"`

	Cookie      CookieConfig      `yaml:"cookie"`
	TicketStore TicketStoreConfig `yaml:"ticket_store"`

	// SweepSchedule is a cron spec for expired-entry sweeps on backends
	// that need them. Empty disables the sweeper.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// CookieConfig configures the session cookie.
type CookieConfig struct {
	Name   string `yaml:"name"`
	Secret string `yaml:"secret"`
}

// TicketStoreConfig selects and configures the ticket store backend.
type TicketStoreConfig struct {
	Backend string        `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	LevelDB LevelDBConfig `yaml:"leveldb"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	Namespace string `yaml:"namespace"`
}

// LevelDBConfig holds the on-disk store location.
type LevelDBConfig struct {
	Path string `yaml:"path"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for use, applying defaults in place.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return domain.ConfigError("server_url is required")
	}
	c.ServerURL = strings.TrimRight(c.ServerURL, "/")

	if c.Protocol == "" {
		c.Protocol = ProtocolCAS2
	}
	switch c.Protocol {
	case ProtocolCAS1, ProtocolCAS2, ProtocolSAML11:
	default:
		return domain.ConfigError(fmt.Sprintf("unknown protocol %q", c.Protocol))
	}

	if c.ProxyCallbackURL != "" && c.Protocol != ProtocolCAS2 {
		return domain.ConfigError("proxy_callback_url requires the cas2 protocol")
	}

	if c.Cookie.Secret == "" {
		return domain.ConfigError("cookie.secret is required")
	}

	if c.TicketStore.Backend == "" {
		c.TicketStore.Backend = BackendMemory
	}
	switch c.TicketStore.Backend {
	case BackendMemory, BackendLevelDB:
	case BackendRedis:
		if c.TicketStore.Redis.Addr == "" {
			return domain.ConfigError("ticket_store.redis.addr is required for the redis backend")
		}
	default:
		return domain.ConfigError(fmt.Sprintf("unknown ticket store backend %q", c.TicketStore.Backend))
	}
	if c.TicketStore.Backend == BackendLevelDB && c.TicketStore.LevelDB.Path == "" {
		return domain.ConfigError("ticket_store.leveldb.path is required for the leveldb backend")
	}

	if c.TicketTimeout < 0 {
		return domain.ConfigError("ticket_timeout must not be negative")
	}
	if c.Tolerance < 0 {
		return domain.ConfigError("tolerance must not be negative")
	}
	return nil
}

// LoginURL returns the server's login endpoint.
func (c *Config) LoginURL() string {
	return c.ServerURL + "/login"
}
