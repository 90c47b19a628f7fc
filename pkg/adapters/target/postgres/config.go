package postgres

import (
	"fmt"
	"net/url"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	// URL is a complete connection URL. Wins over the discrete fields.
	URL string

	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    DefaultPort(),
		SSLMode: "prefer",
	}

	str := func(key string) string {
		v, _ := config[key].(string)
		return v
	}

	cfg.URL = str("url")
	cfg.Host = str("host")
	cfg.Database = str("database")
	cfg.Username = str("username")
	cfg.Password = str("password")
	if mode := str("ssl_mode"); mode != "" {
		cfg.SSLMode = mode
	}

	if port, ok := config["port"].(float64); ok { // JSON numbers are float64
		cfg.Port = int(port)
	} else if port, ok := config["port"].(int); ok {
		cfg.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that a complete connection descriptor is present.
func (c *Config) Validate() error {
	if c.URL != "" {
		return nil
	}
	if c.Host == "" || c.Database == "" || c.Username == "" {
		return fmt.Errorf("%w: provide url, or host/database/username", apperrors.ErrConfigIncomplete)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// ConnectionString builds the connection URL.
func (c *Config) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}
