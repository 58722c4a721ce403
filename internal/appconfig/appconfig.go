package appconfig

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/signer"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override, e.g. GOSESSION_SERVER_ADDR.
const EnvPrefix = "GOSESSION"

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Keys     KeysConfig     `mapstructure:"keys"`
	Token    TokenConfig    `mapstructure:"token"`
	Cookie   CookieConfig   `mapstructure:"cookie"`
	Password PasswordConfig `mapstructure:"password"`
	Store    StoreConfig    `mapstructure:"store"`
	Security SecurityConfig `mapstructure:"security"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// KeysConfig holds base64url-encoded signing keys.
type KeysConfig struct {
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

type TokenConfig struct {
	CookieName       string        `mapstructure:"cookie_name"`
	Duration         time.Duration `mapstructure:"duration"`
	RenewThreshold   time.Duration `mapstructure:"renew_threshold"`
	RenewalMandatory bool          `mapstructure:"renewal_mandatory"`
}

type CookieConfig struct {
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

type PasswordConfig struct {
	Scheme         string       `mapstructure:"scheme"`
	UpgradeOnLogin bool         `mapstructure:"upgrade_on_login"`
	Argon2         Argon2Config `mapstructure:"argon2"`
}

type Argon2Config struct {
	Memory      uint32 `mapstructure:"memory"`
	Time        uint32 `mapstructure:"time"`
	Parallelism uint8  `mapstructure:"parallelism"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type StoreConfig struct {
	Driver   string         `mapstructure:"driver"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

type SecurityConfig struct {
	LoginThrottle    bool          `mapstructure:"login_throttle"`
	IPThrottle       bool          `mapstructure:"ip_throttle"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LoginCooldown    time.Duration `mapstructure:"login_cooldown"`
}

type AuditConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	BufferSize int  `mapstructure:"buffer_size"`
	DropIfFull bool `mapstructure:"drop_if_full"`
	// JSONPath, when set, also appends every event as a JSON line to this file.
	JSONPath string `mapstructure:"json_path"`
}

type MetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	LatencyHistograms bool `mapstructure:"latency_histograms"`
}

func setDefaults(v *viper.Viper) {
	session := goSession.DefaultConfig()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("keys.password", "")
	v.SetDefault("keys.token", "")

	v.SetDefault("token.cookie_name", session.Token.CookieName)
	v.SetDefault("token.duration", session.Token.Duration)
	v.SetDefault("token.renew_threshold", session.Token.RenewThreshold)
	v.SetDefault("token.renewal_mandatory", session.Token.RenewalMandatory)

	v.SetDefault("cookie.path", "/")
	v.SetDefault("cookie.domain", "")
	v.SetDefault("cookie.secure", true)
	v.SetDefault("cookie.same_site", "lax")

	v.SetDefault("password.scheme", string(session.Password.Scheme))
	v.SetDefault("password.upgrade_on_login", false)
	v.SetDefault("password.argon2.memory", session.Password.Argon2.Memory)
	v.SetDefault("password.argon2.time", session.Password.Argon2.Time)
	v.SetDefault("password.argon2.parallelism", session.Password.Argon2.Parallelism)
	v.SetDefault("password.argon2.key_length", session.Password.Argon2.KeyLength)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "gs")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.max_conns", 10)
	v.SetDefault("store.postgres.migrate", true)

	v.SetDefault("security.login_throttle", false)
	v.SetDefault("security.ip_throttle", false)
	v.SetDefault("security.max_login_attempts", session.Security.MaxLoginAttempts)
	v.SetDefault("security.login_cooldown", session.Security.LoginCooldownDuration)

	v.SetDefault("audit.enabled", true)
	v.SetDefault("audit.buffer_size", session.Audit.BufferSize)
	v.SetDefault("audit.drop_if_full", session.Audit.DropIfFull)
	v.SetDefault("audit.json_path", "")

	v.SetDefault("metrics.enabled", session.Metrics.Enabled)
	v.SetDefault("metrics.latency_histograms", true)
}

// Load reads path when set, otherwise searches ./gosession.yaml and
// /etc/gosession/gosession.yaml. A missing searched file is not an error.
// Environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gosession")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/gosession/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks process-level settings and the derived session config.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be > 0")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := parseSameSite(c.Cookie.SameSite); err != nil {
		return err
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr must be set for the redis driver")
		}
	case DriverPostgres:
		if c.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.Store.Driver)
	}
	if c.Security.LoginThrottle && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr must be set when security.login_throttle is enabled")
	}

	session, err := c.SessionConfig()
	if err != nil {
		return err
	}
	return session.Validate()
}

// NeedsRedis reports whether a Redis client must be built.
func (c *Config) NeedsRedis() bool {
	return c.Store.Driver == DriverRedis || c.Security.LoginThrottle
}

// SessionConfig maps the file settings onto the library configuration.
func (c *Config) SessionConfig() (goSession.Config, error) {
	passwordKey, err := decodeKey("keys.password", c.Keys.Password)
	if err != nil {
		return goSession.Config{}, err
	}
	tokenKey, err := decodeKey("keys.token", c.Keys.Token)
	if err != nil {
		return goSession.Config{}, err
	}

	cfg := goSession.DefaultConfig()
	cfg.Keys = goSession.KeysConfig{PasswordKey: passwordKey, TokenKey: tokenKey}
	cfg.Token = goSession.TokenConfig{
		CookieName:       c.Token.CookieName,
		Duration:         c.Token.Duration,
		RenewThreshold:   c.Token.RenewThreshold,
		RenewalMandatory: c.Token.RenewalMandatory,
	}
	cfg.Password = goSession.PasswordConfig{
		Scheme:         password.Scheme(c.Password.Scheme),
		UpgradeOnLogin: c.Password.UpgradeOnLogin,
		Argon2: password.Argon2Params{
			Memory:      c.Password.Argon2.Memory,
			Time:        c.Password.Argon2.Time,
			Parallelism: c.Password.Argon2.Parallelism,
			KeyLength:   c.Password.Argon2.KeyLength,
		},
	}
	cfg.Security = goSession.SecurityConfig{
		EnableLoginThrottle:   c.Security.LoginThrottle,
		EnableIPThrottle:      c.Security.IPThrottle,
		MaxLoginAttempts:      c.Security.MaxLoginAttempts,
		LoginCooldownDuration: c.Security.LoginCooldown,
	}
	cfg.Audit = goSession.AuditConfig{
		Enabled:    c.Audit.Enabled,
		BufferSize: c.Audit.BufferSize,
		DropIfFull: c.Audit.DropIfFull,
	}
	cfg.Metrics = goSession.MetricsConfig{
		Enabled:                 c.Metrics.Enabled,
		EnableLatencyHistograms: c.Metrics.Enabled && c.Metrics.LatencyHistograms,
	}
	return cfg, nil
}

// CookieOptions returns the cookie attributes for the HTTP middleware.
func (c *Config) CookieOptions() middleware.CookieOptions {
	opts := middleware.DefaultCookieOptions()
	opts.Path = c.Cookie.Path
	opts.Domain = c.Cookie.Domain
	opts.Secure = c.Cookie.Secure
	if mode, err := parseSameSite(c.Cookie.SameSite); err == nil {
		opts.SameSite = mode
	}
	return opts
}

// ZapLevel returns the parsed log level, falling back to info.
func (c *Config) ZapLevel() zapcore.Level {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func decodeKey(name, encoded string) (signer.Key, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%s must be set", name)
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return nil, fmt.Errorf("%s is not base64url: %w", name, err)
	}
	return signer.Key(raw), nil
}

func parseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(s) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("cookie.same_site %q is not supported", s)
	}
}
