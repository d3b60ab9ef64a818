package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"wallet-gateway/pkg/errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Gateway   GatewayConfig
	Claims    ClaimsConfig
	Payment   PaymentConfig
	Reconcile ReconcileConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
}

type ServerConfig struct {
	Port          int
	Host          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	PublicBaseURL string
}

type GatewayConfig struct {
	URL                     string
	ClientID                string
	MerchantPrivateKeyPath  string
	GatewayPublicKeyPath    string
	HTTPTimeout             time.Duration
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
}

type ClaimsConfig struct {
	Key string
}

type PaymentConfig struct {
	Currency        string
	Expiry          time.Duration
	InboxDefaultURL string
}

type ReconcileConfig struct {
	MaxAttempts int
	Interval    time.Duration
}

// RedisConfig is optional; an empty Host disables the review stream.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	ReviewStream string
}

type LoggingConfig struct {
	Level    string
	Encoding string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LoadConfig reads the environment. Any failure is a config error and the
// process must not start.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"GATEWAY_HTTP_TIMEOUT",
		"GATEWAY_BREAKER_OPEN_TIMEOUT",
		"RECONCILE_INTERVAL",
		"PAYMENT_EXPIRY",
	} {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			return nil, errors.NewConfigError(err, fmt.Sprintf("invalid %s", key))
		}
		durations[key] = d
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          v.GetInt("SERVER_PORT"),
			Host:          v.GetString("SERVER_HOST"),
			ReadTimeout:   durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:  durations["SERVER_WRITE_TIMEOUT"],
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		},
		Gateway: GatewayConfig{
			URL:                     v.GetString("WALLET_GATEWAY_URL"),
			ClientID:                v.GetString("WALLET_CLIENT_ID"),
			MerchantPrivateKeyPath:  v.GetString("WALLET_MERCHANT_PRIVATE_KEY_PATH"),
			GatewayPublicKeyPath:    v.GetString("WALLET_GATEWAY_PUBLIC_KEY_PATH"),
			HTTPTimeout:             durations["GATEWAY_HTTP_TIMEOUT"],
			BreakerFailureThreshold: v.GetInt("GATEWAY_BREAKER_FAILURE_THRESHOLD"),
			BreakerOpenTimeout:      durations["GATEWAY_BREAKER_OPEN_TIMEOUT"],
		},
		Claims: ClaimsConfig{
			Key: v.GetString("CLAIMS_TOKEN_KEY"),
		},
		Payment: PaymentConfig{
			Currency:        v.GetString("PAYMENT_CURRENCY"),
			Expiry:          durations["PAYMENT_EXPIRY"],
			InboxDefaultURL: v.GetString("INBOX_DEFAULT_URL"),
		},
		Reconcile: ReconcileConfig{
			MaxAttempts: v.GetInt("RECONCILE_MAX_ATTEMPTS"),
			Interval:    durations["RECONCILE_INTERVAL"],
		},
		Redis: RedisConfig{
			Host:         v.GetString("REDIS_HOST"),
			Port:         v.GetInt("REDIS_PORT"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			ReviewStream: v.GetString("REVIEW_STREAM"),
		},
		Logging: LoggingConfig{
			Level:    v.GetString("LOG_LEVEL"),
			Encoding: v.GetString("LOG_ENCODING"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("SERVICE_NAME"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.NewConfigError(err, fmt.Sprintf("config validation failed: %v", err))
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 1999)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:1999")
	v.SetDefault("GATEWAY_HTTP_TIMEOUT", "25s")
	v.SetDefault("GATEWAY_BREAKER_FAILURE_THRESHOLD", 5)
	v.SetDefault("GATEWAY_BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("PAYMENT_CURRENCY", "IQD")
	v.SetDefault("PAYMENT_EXPIRY", "30m")
	v.SetDefault("INBOX_DEFAULT_URL", "mini://platformapi/startapp?_ariver_appid=888888")
	v.SetDefault("RECONCILE_MAX_ATTEMPTS", 12)
	v.SetDefault("RECONCILE_INTERVAL", "5s")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REVIEW_STREAM", "wallet:refunds:review")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_ENCODING", "json")
	v.SetDefault("SERVICE_NAME", "wallet-gateway")
}

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.validateGateway(); err != nil {
		return fmt.Errorf("gateway config: %w", err)
	}
	if err := c.validateClaims(); err != nil {
		return fmt.Errorf("claims config: %w", err)
	}
	if err := c.validatePayment(); err != nil {
		return fmt.Errorf("payment config: %w", err)
	}
	if err := c.validateReconcile(); err != nil {
		return fmt.Errorf("reconcile config: %w", err)
	}
	if err := c.validateRedis(); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}
	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Server.Port)
	}
	if err := validateURL(c.Server.PublicBaseURL); err != nil {
		return fmt.Errorf("public base url: %w", err)
	}
	return nil
}

func (c *Config) validateGateway() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("WALLET_GATEWAY_URL is required")
	}
	if err := validateURL(c.Gateway.URL); err != nil {
		return fmt.Errorf("gateway url: %w", err)
	}
	if c.Gateway.ClientID == "" {
		return fmt.Errorf("WALLET_CLIENT_ID is required")
	}
	if c.Gateway.MerchantPrivateKeyPath == "" {
		return fmt.Errorf("WALLET_MERCHANT_PRIVATE_KEY_PATH is required")
	}
	if c.Gateway.GatewayPublicKeyPath == "" {
		return fmt.Errorf("WALLET_GATEWAY_PUBLIC_KEY_PATH is required")
	}
	if c.Gateway.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be greater than 0")
	}
	if c.Gateway.BreakerFailureThreshold < 0 {
		return fmt.Errorf("breaker failure threshold must not be negative")
	}
	if c.Gateway.BreakerFailureThreshold > 0 && c.Gateway.BreakerOpenTimeout <= 0 {
		return fmt.Errorf("breaker open timeout must be greater than 0 when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateClaims() error {
	if c.Claims.Key == "" {
		return fmt.Errorf("CLAIMS_TOKEN_KEY is required")
	}
	if len(c.Claims.Key) != 32 {
		return fmt.Errorf("CLAIMS_TOKEN_KEY must be exactly 32 bytes, got %d", len(c.Claims.Key))
	}
	return nil
}

func (c *Config) validatePayment() error {
	if c.Payment.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if c.Payment.Expiry <= 0 {
		return fmt.Errorf("payment expiry must be greater than 0")
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be greater than 0")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("interval must be greater than 0")
	}
	return nil
}

func (c *Config) validateRedis() error {
	if !c.Redis.Enabled() {
		return nil
	}
	if c.Redis.Port <= 0 {
		return fmt.Errorf("port is required when host is set")
	}
	if c.Redis.ReviewStream == "" {
		return fmt.Errorf("review stream is required when redis is configured")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("unsupported log encoding %q", c.Logging.Encoding)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	return time.ParseDuration(s)
}
