// Package config provides configuration for the console server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// UpstreamConfig points at the remote chatbot API.
type UpstreamConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// ConsoleConfig holds list sizes and UI timings.
type ConsoleConfig struct {
	TenantPageSize      int           `mapstructure:"tenant_page_size"`
	FAQLinkPageSize     int           `mapstructure:"faq_link_page_size"`
	FAQPageSize         int           `mapstructure:"faq_page_size"`
	ProductPageSize     int           `mapstructure:"product_page_size"`
	SessionPageSize     int           `mapstructure:"session_page_size"`
	HistoryPageSize     int           `mapstructure:"history_page_size"`
	SearchDebounce      time.Duration `mapstructure:"search_debounce"`
	NotificationBacklog int           `mapstructure:"notification_backlog"`
}

// AuthConfig enables operator JWT auth when a secret is set.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig holds request limits for the API routes.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
	Token    string `mapstructure:"token"`
	Journal  bool   `mapstructure:"journal"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// Load reads configuration from an optional file and CONSOLE_ prefixed
// environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("console")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.allowed_origins", []string{"https://*", "http://*"})

	v.SetDefault("upstream.base_url", "http://localhost:8000")
	v.SetDefault("upstream.timeout", 60*time.Second)
	v.SetDefault("upstream.token", "")

	v.SetDefault("console.tenant_page_size", 10)
	v.SetDefault("console.faq_link_page_size", 10)
	v.SetDefault("console.faq_page_size", 5)
	v.SetDefault("console.product_page_size", 64)
	v.SetDefault("console.session_page_size", 20)
	v.SetDefault("console.history_page_size", 50)
	v.SetDefault("console.search_debounce", 500*time.Millisecond)
	v.SetDefault("console.notification_backlog", 50)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.journal", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
}

func (c *Config) validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	sizes := map[string]int{
		"console.tenant_page_size":   c.Console.TenantPageSize,
		"console.faq_link_page_size": c.Console.FAQLinkPageSize,
		"console.faq_page_size":      c.Console.FAQPageSize,
		"console.product_page_size":  c.Console.ProductPageSize,
		"console.session_page_size":  c.Console.SessionPageSize,
		"console.history_page_size":  c.Console.HistoryPageSize,
	}
	for key, size := range sizes {
		if size <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, size)
		}
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return ":" + c.Server.Port
}
