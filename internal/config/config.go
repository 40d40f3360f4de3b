package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	MFA      MFAConfig      `mapstructure:"mfa"`
	Idv      IdvConfig      `mapstructure:"idv"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	TLS  struct {
		Enabled  bool   `mapstructure:"enabled"`
		CertFile string `mapstructure:"cert_file"`
		KeyFile  string `mapstructure:"key_file"`
	} `mapstructure:"tls"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig holds session token configuration
type AuthConfig struct {
	// SigningKey is the HS256 key used to verify session tokens
	SigningKey   string             `mapstructure:"signing_key"`
	Issuer       string             `mapstructure:"issuer"`
	TokenTTL     time.Duration      `mapstructure:"token_ttl"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting"`
}

// RateLimitingConfig holds rate limiting configuration
type RateLimitingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	DefaultLimit  int    `mapstructure:"default_limit"`
	DefaultWindow string `mapstructure:"default_window"`
}

// MFAConfig holds MFA configuration
type MFAConfig struct {
	TOTP        TOTPConfig        `mapstructure:"totp"`
	WebAuthn    WebAuthnConfig    `mapstructure:"webauthn"`
	BackupCodes BackupCodeConfig  `mapstructure:"backup_codes"`
	Lockout     LockoutConfig     `mapstructure:"lockout"`
	PersonalKey PersonalKeyConfig `mapstructure:"personal_key"`
}

// TOTPConfig holds authenticator-app configuration
type TOTPConfig struct {
	Issuer string `mapstructure:"issuer"`
	Digits int    `mapstructure:"digits"`
	Period int    `mapstructure:"period"`
	// Skew is the number of periods of clock drift tolerated on confirm
	Skew uint `mapstructure:"skew"`
}

// WebAuthnConfig holds WebAuthn configuration
type WebAuthnConfig struct {
	RPID      string   `mapstructure:"rp_id"`
	RPOrigins []string `mapstructure:"rp_origins"`
	RPName    string   `mapstructure:"rp_name"`
}

// BackupCodeConfig holds backup code batch configuration
type BackupCodeConfig struct {
	// BatchSize is the number of codes generated per enrollment batch
	BatchSize int `mapstructure:"batch_size"`
}

// LockoutConfig holds per-factor maximum attempt thresholds.
// Counters are kept in the verification session; these values are the
// externally injected maximums, never ambient constants.
type LockoutConfig struct {
	MaxBackupCodeAttempts int `mapstructure:"max_backup_code_attempts"`
	MaxTOTPAttempts       int `mapstructure:"max_totp_attempts"`
}

// PersonalKeyConfig holds recovery key configuration
type PersonalKeyConfig struct {
	// WordCount is the number of word groups in a generated key
	WordCount int `mapstructure:"word_count"`
	// OfferAfterTOTPSetup allows offering a personal key right after the
	// first authenticator-app confirmation in the proofing funnel
	OfferAfterTOTPSetup bool `mapstructure:"offer_after_totp_setup"`
}

// IdvConfig holds identity-verification configuration
type IdvConfig struct {
	// MaxAttempts is the per-factor proofing attempt ceiling
	MaxAttempts int `mapstructure:"max_attempts"`
	// SessionTTL bounds how long a verification session lives in Redis
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	Vendor     VendorConfig  `mapstructure:"vendor"`
	// DefaultRegion is the region used when normalizing phone numbers
	// without a country prefix
	DefaultRegion string `mapstructure:"default_region"`
}

// VendorConfig holds proofing vendor configuration
type VendorConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/proofid")

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Bind environment variables
	v.SetEnvPrefix("PROOFID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.tls.enabled", false)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "proofid")
	v.SetDefault("database.user", "proofid")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Auth defaults
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.issuer", "proofid")
	v.SetDefault("auth.token_ttl", "12h")
	v.SetDefault("auth.rate_limiting.enabled", true)
	v.SetDefault("auth.rate_limiting.default_limit", 100)
	v.SetDefault("auth.rate_limiting.default_window", "1m")

	// MFA defaults
	v.SetDefault("mfa.totp.issuer", "ProofID")
	v.SetDefault("mfa.totp.digits", 6)
	v.SetDefault("mfa.totp.period", 30)
	v.SetDefault("mfa.totp.skew", 1)

	v.SetDefault("mfa.webauthn.rp_id", "localhost")
	v.SetDefault("mfa.webauthn.rp_origins", []string{"http://localhost:3000"})
	v.SetDefault("mfa.webauthn.rp_name", "ProofID")

	v.SetDefault("mfa.backup_codes.batch_size", 10)

	v.SetDefault("mfa.lockout.max_backup_code_attempts", 3)
	v.SetDefault("mfa.lockout.max_totp_attempts", 3)

	v.SetDefault("mfa.personal_key.word_count", 4)
	v.SetDefault("mfa.personal_key.offer_after_totp_setup", true)

	// Idv defaults
	v.SetDefault("idv.max_attempts", 3)
	v.SetDefault("idv.session_ttl", "30m")
	v.SetDefault("idv.vendor.url", "")
	v.SetDefault("idv.vendor.timeout", "10s")
	v.SetDefault("idv.default_region", "US")
}
