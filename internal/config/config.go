package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Admission AdmissionConfig `mapstructure:"admission"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Spam      SpamConfig      `mapstructure:"spam"`
	Store     StoreConfig     `mapstructure:"store"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	DevMode   bool            `mapstructure:"dev_mode"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type AdmissionConfig struct {
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

// EndpointLimit overrides the default submission quota for a single endpoint.
type EndpointLimit struct {
	MaxSubmissions int           `mapstructure:"max_submissions"`
	Window         time.Duration `mapstructure:"window"`
}

type RateLimitConfig struct {
	Enabled        bool                     `mapstructure:"enabled"`
	MaxSubmissions int                      `mapstructure:"max_submissions"`
	Window         time.Duration            `mapstructure:"window"`
	FailOpen       bool                     `mapstructure:"fail_open"`
	Overrides      map[string]EndpointLimit `mapstructure:"overrides"`
	Redis          RedisConfig              `mapstructure:"redis"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type SpamConfig struct {
	// RequireCSRF switches the token check from opportunistic (pair validated
	// only when both tokens are present) to mandatory. The opportunistic
	// default matches the original deployment but lets a client skip the
	// check entirely by omitting both tokens.
	RequireCSRF    bool   `mapstructure:"require_csrf"`
	MinTokenLength int    `mapstructure:"min_token_length"`
	KeywordFile    string `mapstructure:"keyword_file"`
}

type StoreConfig struct {
	Backend     string `mapstructure:"backend"` // "memory" or "postgres"
	PostgresURL string `mapstructure:"postgres_url"`
}

type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

type DispatchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Mail    MailConfig    `mapstructure:"mail"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	NATS    NATSConfig    `mapstructure:"nats"`
}

// Limit returns the effective quota for an endpoint, applying any override.
func (c RateLimitConfig) Limit(endpoint string) (int, time.Duration) {
	if o, ok := c.Overrides[endpoint]; ok && o.MaxSubmissions > 0 && o.Window > 0 {
		return o.MaxSubmissions, o.Window
	}
	return c.MaxSubmissions, c.Window
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8070)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)
	v.SetDefault("admission.max_body_bytes", 1048576)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_submissions", 3)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.fail_open", false)
	v.SetDefault("rate_limit.redis.enabled", false)
	v.SetDefault("rate_limit.redis.url", "redis://localhost:6379")
	v.SetDefault("spam.require_csrf", false)
	v.SetDefault("spam.min_token_length", 16)
	v.SetDefault("store.backend", "memory")
	v.SetDefault("dispatch.timeout", "10s")
	v.SetDefault("dispatch.mail.enabled", false)
	v.SetDefault("dispatch.mail.port", 587)
	v.SetDefault("dispatch.webhook.enabled", false)
	v.SetDefault("dispatch.nats.enabled", false)
	v.SetDefault("dispatch.nats.url", "nats://localhost:4222")
	v.SetDefault("dispatch.nats.subject", "formgate.submissions")
	v.SetDefault("dev_mode", false)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/formgate")
	}

	// Environment variables override
	v.SetEnvPrefix("FORMGATE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
