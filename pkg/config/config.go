// Package config loads orchestrator settings from environment variables.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/streamfund/donorpay/pkg/constants"
)

// Config holds everything the host needs to wire a donation processor.
type Config struct {
	// BackendURL is the campaign backend base URL.
	BackendURL string `env:"DONORPAY_BACKEND_URL"`

	// AccessToken, when set, is sent as a bearer token on recording calls.
	AccessToken string `env:"DONORPAY_ACCESS_TOKEN"`

	// ReturnURL is the absolute URL wallet apps redirect back to after a
	// deep-link hand-off. Required for the redirect route.
	ReturnURL string `env:"DONORPAY_RETURN_URL"`

	// StorePath is the SQLite database file for donation intents. Empty
	// selects the in-memory store, which does not survive a restart.
	StorePath string `env:"DONORPAY_STORE_PATH"`

	// Network selects the chain for history recovery.
	Network string `env:"DONORPAY_NETWORK" envDefault:"ethereum"`

	// RPCEndpoints override the built-in public endpoints for Network.
	RPCEndpoints []string `env:"DONORPAY_RPC_ENDPOINTS" envSeparator:","`

	// PollInterval is the donation feed refresh period.
	PollInterval time.Duration `env:"DONORPAY_POLL_INTERVAL" envDefault:"15s"`

	// IntentExpiry bounds how long an unresolved intent is reconciled
	// before being abandoned.
	IntentExpiry time.Duration `env:"DONORPAY_INTENT_EXPIRY" envDefault:"15m"`
}

// Load parses and validates configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the parsed values.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("DONORPAY_BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(c.BackendURL); err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.BackendURL, err)
	}
	if c.ReturnURL != "" {
		parsed, err := url.Parse(c.ReturnURL)
		if err != nil || !parsed.IsAbs() {
			return fmt.Errorf("return url %q must be absolute", c.ReturnURL)
		}
	}
	if _, ok := constants.NetworkToChainID[c.Network]; !ok && c.Network != constants.NetworkSolana {
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.IntentExpiry <= 0 {
		return fmt.Errorf("intent expiry must be positive")
	}
	return nil
}

// Endpoints returns the RPC endpoints to use: the configured override, or
// the built-in public endpoints for the network.
func (c *Config) Endpoints() []string {
	if len(c.RPCEndpoints) > 0 {
		return c.RPCEndpoints
	}
	return constants.OfficialRPCEndpoints[c.Network]
}
