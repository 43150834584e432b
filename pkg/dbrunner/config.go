package dbrunner

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DefaultCallTimeout is the per-call deadline applied when the caller's
// context carries none. Result streaming is exempt: a retrieval keeps
// consuming until the stream ends.
const DefaultCallTimeout = 30 * time.Second

// Config holds the connection settings for the dbrunner execution service.
type Config struct {
	// Addr is the service endpoint as a grpc:// or grpcs:// URL
	// (e.g., "grpc://dbrunner.services.svc.cluster.local:50051").
	// Environment variable: DBRUNNER_ADDR
	Addr string `json:"addr" env:"DBRUNNER_ADDR"`

	// CallTimeout is the deadline applied to unary calls when the caller's
	// context has none. Default: 30s.
	// Environment variable: DBRUNNER_CALL_TIMEOUT
	CallTimeout time.Duration `json:"call_timeout,omitempty" env:"DBRUNNER_CALL_TIMEOUT"`
}

// DefaultConfig returns a Config with default values. Addr has no default;
// the deployment must provide it.
func DefaultConfig() *Config {
	return &Config{
		CallTimeout: DefaultCallTimeout,
	}
}

// Validate checks the configuration and applies defaults for zero-valued
// fields. Addr must be a grpc:// or grpcs:// URL with a host.
func (c *Config) Validate() error {
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.Addr == "" {
		return errors.New("dbrunner: config addr must not be empty")
	}
	if _, _, err := dialTarget(c.Addr); err != nil {
		return err
	}
	return nil
}

// dialTarget parses a grpc:// or grpcs:// endpoint URL into a gRPC dial
// target and a TLS flag.
func dialTarget(endpointURL string) (target string, secure bool, err error) {
	u, parseErr := url.Parse(endpointURL)
	if parseErr != nil {
		return "", false, fmt.Errorf("dbrunner: parse endpoint url: %w", parseErr)
	}

	scheme := strings.ToLower(strings.TrimSpace(u.Scheme))
	switch scheme {
	case "grpc", "grpcs":
		if u.Host == "" {
			return "", false, errors.New("dbrunner: endpoint host is required")
		}
		return u.Host, scheme == "grpcs", nil
	default:
		return "", false, fmt.Errorf("dbrunner: endpoint requires grpc:// or grpcs:// scheme, got %q", scheme)
	}
}
