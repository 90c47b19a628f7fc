package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
)

// Config holds all configuration for loadbridge.
// Configuration can come from a YAML file (config.yaml by default) or
// environment variables; environment variables override YAML values.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Dialect selects the registered target adapter: oracle, postgres, mssql.
	Dialect string `yaml:"dialect" env:"LB_DIALECT" env-default:"oracle"`

	// TargetSchema overrides the schema part of every target table name.
	TargetSchema string `yaml:"target_schema" env:"LB_TARGET_SCHEMA" env-default:""`

	// BatchSize is the record count at which a stream's buffer is flushed.
	BatchSize int `yaml:"batch_size" env:"LB_BATCH_SIZE" env-default:"500"`

	// PreferFloatOverNumeric maps JSON numbers to an approximate float type
	// instead of an exact decimal.
	PreferFloatOverNumeric bool `yaml:"prefer_float_over_numeric" env:"LB_PREFER_FLOAT_OVER_NUMERIC" env-default:"false"`

	// Schema evolution switches for live tables.
	FreezeSchema     bool `yaml:"freeze_schema" env:"LB_FREEZE_SCHEMA" env-default:"false"`
	AllowColumnAdd   bool `yaml:"allow_column_add" env:"LB_ALLOW_COLUMN_ADD" env-default:"true"`
	AllowColumnAlter bool `yaml:"allow_column_alter" env:"LB_ALLOW_COLUMN_ALTER" env-default:"true"`

	// LogLevel is a zap level string: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LB_LOG_LEVEL" env-default:"info"`

	// Connection describes the target database.
	Connection ConnectionConfig `yaml:"connection"`

	// Version is set at load time, not from config.
	Version string `yaml:"-"`
}

// ConnectionConfig holds the target database connection settings. It is a
// superset of every adapter's options; each adapter reads the keys it
// understands from ToMap.
type ConnectionConfig struct {
	// URL is a full driver connection URL. When set it wins over the
	// individual fields below.
	URL string `yaml:"-" env:"LB_CONNECTION_URL"` // May embed a password - not in YAML

	Host     string `yaml:"host" env:"LB_HOST" env-default:""`
	Port     int    `yaml:"port" env:"LB_PORT" env-default:"0"`
	Database string `yaml:"database" env:"LB_DATABASE" env-default:""`
	Username string `yaml:"username" env:"LB_USERNAME" env-default:""`
	Password string `yaml:"-" env:"LB_PASSWORD"` // Secret - not in YAML

	// Oracle-specific options.
	Service    string `yaml:"service" env:"LB_SERVICE" env-default:""`
	DSN        string `yaml:"dsn" env:"LB_DSN" env-default:""`
	ProxyUser  string `yaml:"proxy_user" env:"LB_PROXY_USER" env-default:""`
	TNSAdmin   string `yaml:"tns_admin" env:"LB_TNS_ADMIN" env-default:""`
	WalletPath string `yaml:"wallet_path" env:"LB_WALLET_PATH" env-default:""`

	// PostgreSQL-specific options.
	SSLMode string `yaml:"ssl_mode" env:"LB_SSL_MODE" env-default:""`

	// SQL Server-specific options.
	Encrypt                bool `yaml:"encrypt" env:"LB_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool `yaml:"trust_server_certificate" env:"LB_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int  `yaml:"connection_timeout" env:"LB_CONNECTION_TIMEOUT" env-default:"0"`
}

// Load reads configuration from the given YAML path with environment
// variable overrides. An empty path means config.yaml; a missing default
// file is fine and configuration comes from the environment alone. The
// version parameter is injected at build time.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	err := cleanenv.ReadConfig(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Dialect {
	case "oracle", "postgres", "mssql":
	case "":
		return fmt.Errorf("%w: dialect is required", apperrors.ErrConfigIncomplete)
	default:
		return fmt.Errorf("unknown dialect %q", c.Dialect)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	return nil
}

// ToMap renders the connection settings as the generic map the adapter
// factories consume. Zero values are omitted so adapter defaults apply.
func (c *ConnectionConfig) ToMap() map[string]any {
	m := make(map[string]any)

	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("url", c.URL)
	set("host", c.Host)
	set("database", c.Database)
	set("username", c.Username)
	set("password", c.Password)
	set("service", c.Service)
	set("dsn", c.DSN)
	set("proxy_user", c.ProxyUser)
	set("tns_admin", c.TNSAdmin)
	set("wallet_path", c.WalletPath)
	set("ssl_mode", c.SSLMode)

	if c.Port > 0 {
		m["port"] = c.Port
	}
	if c.ConnectionTimeout > 0 {
		m["connection_timeout"] = c.ConnectionTimeout
	}
	m["encrypt"] = c.Encrypt
	m["trust_server_certificate"] = c.TrustServerCertificate

	return m
}

// ExampleYAML is what `loadbridge -init` writes for a new deployment.
const ExampleYAML = `# loadbridge configuration.
# Secrets (LB_PASSWORD, LB_CONNECTION_URL) come from the environment only.
dialect: oracle
target_schema: ""
batch_size: 500
prefer_float_over_numeric: false
freeze_schema: false
allow_column_add: true
allow_column_alter: true
log_level: info
connection:
  host: localhost
  port: 1521
  service: FREEPDB1
  username: loader
`

// WriteExample writes ExampleYAML to path, refusing to clobber an existing
// file.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(ExampleYAML), 0o644)
}
