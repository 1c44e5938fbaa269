package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvStaging    = "staging"
	EnvProduction = "production"
)

type Config struct {
	EnvName string

	HTTPPort      int
	HTTPSPort     int
	HTTPSCertFile string
	HTTPSKeyFile  string

	HashingSecret string
	DataDir       string
	TokenTTL      time.Duration
	MaxBodyBytes  int64

	LogLevel       string
	RateLimitRPS   int
	RateLimitBurst int
	AllowedOrigins []string
	MetricsEnabled bool

	Twilio Twilio
}

// Twilio configures the welcome SMS. Sending is off unless SID, token and
// sender number are all set.
type Twilio struct {
	AccountSID  string
	AuthToken   string
	FromPhone   string
	CountryCode string
}

func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromPhone != ""
}

// HTTPSEnabled reports whether both TLS files were provided.
func (c *Config) HTTPSEnabled() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

func (c *Config) HTTPAddress() string  { return fmt.Sprintf(":%d", c.HTTPPort) }
func (c *Config) HTTPSAddress() string { return fmt.Sprintf(":%d", c.HTTPSPort) }

var defaultPorts = map[string][2]int{
	EnvStaging:    {3000, 3001},
	EnvProduction: {5000, 5001},
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("ENV_NAME", EnvStaging)
	v.SetDefault("DATA_DIR", ".data")
	v.SetDefault("TOKEN_TTL", "1h")
	v.SetDefault("MAX_BODY_BYTES", 1<<20)
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("TWILIO_COUNTRY_CODE", "+55")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file, %w", err)
		}
	}

	env := strings.ToLower(strings.TrimSpace(v.GetString("ENV_NAME")))
	ports, ok := defaultPorts[env]
	if !ok {
		return nil, fmt.Errorf("unknown ENV_NAME %q", env)
	}
	v.SetDefault("HTTP_PORT", ports[0])
	v.SetDefault("HTTPS_PORT", ports[1])

	ttl, err := time.ParseDuration(v.GetString("TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	cfg := &Config{
		EnvName:        env,
		HTTPSCertFile:  v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:   v.GetString("HTTPS_KEY_FILE"),
		HashingSecret:  v.GetString("HASHING_SECRET"),
		DataDir:        v.GetString("DATA_DIR"),
		TokenTTL:       ttl,
		MaxBodyBytes:   v.GetInt64("MAX_BODY_BYTES"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		RateLimitRPS:   v.GetInt("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		Twilio: Twilio{
			AccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
			FromPhone:   v.GetString("TWILIO_FROM_PHONE"),
			CountryCode: v.GetString("TWILIO_COUNTRY_CODE"),
		},
	}

	if cfg.HTTPPort, err = port(v, "HTTP_PORT"); err != nil {
		return nil, err
	}
	if cfg.HTTPSPort, err = port(v, "HTTPS_PORT"); err != nil {
		return nil, err
	}

	if cfg.HashingSecret == "" {
		return nil, fmt.Errorf("HASHING_SECRET is required")
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("DATA_DIR must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("MAX_BODY_BYTES must be positive")
	}

	return cfg, nil
}

func port(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	p, err := strconv.Atoi(raw)
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("%s: invalid port %q", key, raw)
	}
	return p, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
