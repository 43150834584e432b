package gateway

import (
	"time"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/clients/postgres"
	"github.com/sqlground/sqlground-core/pkg/clients/redis"
	"github.com/sqlground/sqlground-core/pkg/dbrunner"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// AuthConfig configures credential validation against the identity
// provider.
type AuthConfig struct {
	// Domain is the identity provider's base URL, e.g.
	// "https://sqlground.eu.auth0.com".
	Domain string `yaml:"domain" json:"domain" env:"AUTH_DOMAIN" required:"true"`

	// Audience is the expected "aud" claim value.
	Audience string `yaml:"audience" json:"audience" env:"AUTH_AUDIENCE" required:"true"`

	// Leeway is the clock-skew allowance for token time checks.
	Leeway time.Duration `yaml:"leeway" json:"leeway,omitempty" env:"AUTH_LEEWAY" envDefault:"30s"`

	// KeySetTTL bounds how long fetched signing keys are trusted.
	KeySetTTL time.Duration `yaml:"key_set_ttl" json:"key_set_ttl,omitempty" env:"AUTH_KEY_SET_TTL" envDefault:"1h"`
}

// ValidatorConfig converts the section into the auth package's form.
func (c AuthConfig) ValidatorConfig() auth.ValidatorConfig {
	return auth.ValidatorConfig{
		Domain:   c.Domain,
		Audience: c.Audience,
		Leeway:   c.Leeway,
	}
}

// Config is the gateway process configuration, loaded with pkg/config.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr,omitempty" env:"GATEWAY_LISTEN_ADDR" envDefault:":8080"`

	// RateLimit is the number of submissions allowed per subject per
	// window. Zero disables the cap.
	RateLimit int64 `yaml:"rate_limit" json:"rate_limit,omitempty" env:"GATEWAY_RATE_LIMIT" envDefault:"30"`

	// RateWindow is the counting window for the submission cap.
	RateWindow time.Duration `yaml:"rate_window" json:"rate_window,omitempty" env:"GATEWAY_RATE_WINDOW" envDefault:"1m"`

	Auth     AuthConfig      `yaml:"auth" json:"auth"`
	DBRunner dbrunner.Config `yaml:"dbrunner" json:"dbrunner"`
	Postgres postgres.Config `yaml:"postgres" json:"postgres"`
	Redis    redis.Config    `yaml:"redis" json:"redis"`
}

// Validate checks the whole configuration, delegating to each section.
// Section validators apply their own defaults.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return apperrors.Internal("config: listen address must not be empty")
	}
	if c.RateLimit < 0 {
		return apperrors.Internal("config: rate limit must not be negative")
	}
	if c.RateWindow < 0 {
		return apperrors.Internal("config: rate window must not be negative")
	}
	if err := c.DBRunner.Validate(); err != nil {
		return err
	}
	if err := c.Postgres.Validate(); err != nil {
		return err
	}
	return c.Redis.Validate()
}
