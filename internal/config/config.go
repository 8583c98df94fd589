// Package config loads the service configuration.
//
// Configuration is layered, lowest priority first:
//   - compiled-in defaults (DefaultConfig)
//   - a `.env` file, if present, loaded into the process environment
//   - environment variables prefixed with CONTENTFILTER_
//
// Nested keys are separated by a double underscore, so
// CONTENTFILTER_DATABASE__SSL_MODE maps to database.ssl_mode, which is
// Config.Database.SSLMode. List values are comma separated.
//
// The result is validated with go-playground/validator before it is returned,
// so a bad deployment fails at startup rather than on the first request.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: loads `.env` into the process environment before
	// any env var is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable carries.
const EnvPrefix = "CONTENTFILTER_"

// ServiceName tags logs, traces and the New Relic application.
const ServiceName = "contentfilter"

// Config is the root configuration object.
//
// The `koanf` tags name the key each field is read from. The `validate` tags
// are enforced by go-playground/validator after loading.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Filter        *FilterConfig        `koanf:"filter" validate:"required"`
	Spam          *SpamConfig          `koanf:"spam" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary describes the runtime environment ("development", "production", ...).
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server. Timeouts are in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// RateLimit is the sustained number of requests per second allowed per
	// client IP on the filter endpoints. Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit" validate:"min=0"`
	RateBurst int     `koanf:"rate_burst" validate:"min=0"`
}

// DatabaseConfig holds PostgreSQL connection parameters and pool tuning.
// Lifetimes are in seconds.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig holds the Redis address ("host:port"), shared by the smiley
// cache and the job queue.
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig holds the Clerk secret key used to verify admin sessions.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
}

// DefaultConfig returns the defaults every loaded configuration starts from.
//
// Secrets and connection targets have no defaults. Validation rejects a
// configuration that leaves them empty.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
			RateLimit:    20,
			RateBurst:    40,

			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Filter:        DefaultFilterConfig(),
		Spam:          DefaultSpamConfig(),
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey turns CONTENTFILTER_FILTER__CENSOR__ENABLED into filter.censor.enabled.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// load builds the layered koanf instance: defaults first, then environment.
func load() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	return k, nil
}

// unmarshal decodes path into out. Durations are parsed from strings such as
// "250ms" and comma separated strings fill []string fields.
func unmarshal(k *koanf.Koanf, path string, out any) error {
	return k.UnmarshalWithConf(path, out, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			WeaklyTypedInput: true,
		},
	})
}

// LoadConfig loads, validates and finalizes the full configuration.
func LoadConfig() (*Config, error) {
	k, err := load()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := unmarshal(k, "", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Service identity is fixed; the environment label follows primary.env.
	cfg.Observability.ServiceName = ServiceName
	cfg.Observability.Environment = cfg.Primary.Env

	if err := cfg.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}
	if err := cfg.Filter.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}

	return cfg, nil
}

// LoadFilterConfig loads only the filter section. The offline CLI uses it so
// that filtering text from stdin needs no database, Redis or auth settings.
func LoadFilterConfig() (*FilterConfig, error) {
	k, err := load()
	if err != nil {
		return nil, err
	}

	cfg := &FilterConfig{}
	if err := unmarshal(k, "filter", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal filter config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("filter config validation failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter config: %w", err)
	}

	return cfg, nil
}
