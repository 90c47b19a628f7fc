package oracle

import (
	"fmt"
	"net/url"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
)

// Config contains Oracle-specific connection options. A connection can be
// described four ways, resolved in this priority order: an explicit URL, a
// wallet proxy user, a wallet DSN, or traditional host/port/service
// credentials.
type Config struct {
	// URL is a complete go-ora connection URL. Wins over everything else.
	URL string

	// Wallet authentication fields.
	DSN        string // TNS alias or full descriptor resolved via the wallet
	ProxyUser  string // proxy connect string for proxy-user wallet auth
	TNSAdmin   string // directory holding tnsnames.ora / wallet files
	WalletPath string

	// Traditional authentication fields.
	Host     string
	Port     int
	Service  string
	Username string
	Password string

	// TargetSchema switches the session's current schema after connecting.
	TargetSchema string
}

// DefaultPort returns the default Oracle listener port.
func DefaultPort() int {
	return 1521
}

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port: DefaultPort(),
	}

	str := func(key string) string {
		v, _ := config[key].(string)
		return v
	}

	cfg.URL = str("url")
	cfg.DSN = str("dsn")
	cfg.ProxyUser = str("proxy_user")
	cfg.TNSAdmin = str("tns_admin")
	cfg.WalletPath = str("wallet_path")
	cfg.Host = str("host")
	cfg.Service = str("service")
	cfg.Username = str("username")
	cfg.Password = str("password")
	cfg.TargetSchema = str("target_schema")

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

// Validate checks that at least one complete connection descriptor is
// present. Runs before any database work.
func (c *Config) Validate() error {
	if c.URL != "" || c.ProxyUser != "" || c.DSN != "" {
		return nil
	}
	if c.Host != "" && c.Username != "" && c.Password != "" && c.Service != "" {
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid port: %d", c.Port)
		}
		return nil
	}
	return fmt.Errorf("%w: provide url, proxy_user, dsn, or host/port/service with username and password",
		apperrors.ErrConfigIncomplete)
}

// walletAuth reports whether the config uses wallet authentication.
func (c *Config) walletAuth() bool {
	return c.URL == "" && (c.ProxyUser != "" || c.DSN != "")
}

// ConnectionString builds the go-ora connection URL for the configured
// descriptor.
func (c *Config) ConnectionString() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}

	opts := url.Values{}
	if c.WalletPath != "" {
		opts.Set("wallet", c.WalletPath)
	}

	if c.ProxyUser != "" {
		// Proxy-user wallet auth; the target schema rides along as the proxy
		// client so the session lands in the right schema.
		if c.TargetSchema != "" {
			opts.Set("proxy client name", c.TargetSchema)
		}
		return withOptions(fmt.Sprintf("oracle://@%s", c.ProxyUser), opts), nil
	}

	if c.DSN != "" {
		return withOptions(fmt.Sprintf("oracle://@%s", c.DSN), opts), nil
	}

	if c.Host != "" && c.Username != "" && c.Password != "" && c.Service != "" {
		base := fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
			url.QueryEscape(c.Username),
			url.QueryEscape(c.Password),
			c.Host,
			c.Port,
			c.Service,
		)
		return withOptions(base, opts), nil
	}

	return "", fmt.Errorf("%w: provide url, proxy_user, dsn, or host/port/service with username and password",
		apperrors.ErrConfigIncomplete)
}

func withOptions(base string, opts url.Values) string {
	if len(opts) == 0 {
		return base
	}
	return base + "?" + opts.Encode()
}
