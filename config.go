package goSession

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/signer"
)

const (
	// DefaultCookieName is the session cookie name used when none is configured.
	DefaultCookieName = "auth-token"

	minKeyBytes = 32
)

// Config is the complete Engine configuration. It is validated once by
// [Builder.Build] and immutable afterwards.
type Config struct {
	Keys     KeysConfig
	Token    TokenConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// KeysConfig holds the two signing keys. They must differ so a credential
// record can never double as a token signature.
type KeysConfig struct {
	PasswordKey signer.Key
	TokenKey    signer.Key
}

// TokenConfig controls session token lifetime and renewal.
type TokenConfig struct {
	CookieName string
	// Duration is the lifetime of every issued token.
	Duration time.Duration
	// RenewThreshold re-issues a valid token whose remaining lifetime is below it.
	RenewThreshold time.Duration
	// RenewalMandatory turns a failed renewal into a FailureRenewal outcome.
	// When false the failure is logged and the request proceeds authenticated.
	RenewalMandatory bool
}

// PasswordConfig selects the credential scheme for new records.
type PasswordConfig struct {
	Scheme         password.Scheme
	UpgradeOnLogin bool
	Argon2         password.Argon2Params
}

// SecurityConfig controls login throttling. Throttling requires a Redis client.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the resolve latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns a configuration with every field except the keys set.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			CookieName:     DefaultCookieName,
			Duration:       30 * time.Minute,
			RenewThreshold: 30 * time.Second,
		},
		Password: PasswordConfig{
			Scheme: password.SchemeHMAC,
			Argon2: password.DefaultArgon2Params(),
		},
		Security: SecurityConfig{
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Keys.PasswordKey = append(signer.Key(nil), cfg.Keys.PasswordKey...)
	out.Keys.TokenKey = append(signer.Key(nil), cfg.Keys.TokenKey...)
	return out
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if len(c.Keys.PasswordKey) < minKeyBytes {
		return fmt.Errorf("Keys.PasswordKey must be at least %d bytes", minKeyBytes)
	}
	if len(c.Keys.TokenKey) < minKeyBytes {
		return fmt.Errorf("Keys.TokenKey must be at least %d bytes", minKeyBytes)
	}
	if bytes.Equal(c.Keys.PasswordKey, c.Keys.TokenKey) {
		return errors.New("Keys.PasswordKey and Keys.TokenKey must differ")
	}

	if c.Token.CookieName == "" {
		return errors.New("Token.CookieName must be set")
	}
	if strings.ContainsAny(c.Token.CookieName, " \t\r\n;,=\"") {
		return errors.New("Token.CookieName contains invalid characters")
	}
	if c.Token.Duration <= 0 {
		return errors.New("Token.Duration must be > 0")
	}
	if c.Token.RenewThreshold < 0 {
		return errors.New("Token.RenewThreshold must be >= 0")
	}
	if c.Token.RenewThreshold >= c.Token.Duration {
		return errors.New("Token.RenewThreshold must be less than Token.Duration")
	}

	switch c.Password.Scheme {
	case password.SchemeHMAC, password.SchemeArgon2:
	default:
		return fmt.Errorf("Password.Scheme %q is not supported", c.Password.Scheme)
	}

	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("Security.MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("Security.LoginCooldownDuration must be > 0 when login throttle is enabled")
		}
	}
	if c.Security.EnableIPThrottle && !c.Security.EnableLoginThrottle {
		return errors.New("Security.EnableIPThrottle requires Security.EnableLoginThrottle")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be > 0 when audit is enabled")
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics.EnableLatencyHistograms requires Metrics.Enabled")
	}

	return nil
}
