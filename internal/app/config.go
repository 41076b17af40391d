package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the console.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`
	AppRateLimit      int           `envconfig:"APP_RATE_LIMIT" default:"300"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL       string        `envconfig:"BACKEND_URL" default:"http://localhost:5000"`
	BackendPublicURL string        `envconfig:"BACKEND_PUBLIC_URL"`
	BackendTimeout   time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	RefdataTTL      time.Duration `envconfig:"REFDATA_TTL" default:"5m"`
	ListPerPage     int           `envconfig:"LIST_PER_PAGE" default:"20"`
	SearchDebounce  time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"300ms"`
	BadgeTTL        time.Duration `envconfig:"BADGE_TTL" default:"1m"`
	ImportRateLimit int           `envconfig:"IMPORT_RATE_LIMIT" default:"10"`
}

// ConfigFileEnv names an optional YAML file read before the environment.
const ConfigFileEnv = "CONFIG_FILE"

// LoadConfig reads configuration from CONFIG_FILE, when set, and then from
// environment variables. A variable set in the environment wins over the file.
func LoadConfig() (*Config, error) {
	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		if err := applyConfigFile(path); err != nil {
			return nil, err
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret must be provided")
	}
	if cfg.CSRFSecret == "" {
		return nil, errors.New("csrf secret must be provided")
	}
	if strings.TrimSpace(cfg.BackendURL) == "" {
		return nil, errors.New("backend url must be provided")
	}
	if cfg.BackendPublicURL == "" {
		cfg.BackendPublicURL = cfg.BackendURL
	}
	return &cfg, nil
}

// applyConfigFile exports every key of the file that the environment does not
// already define. Keys are the variable names, for example:
//
//	BACKEND_URL: http://backend:5000
//	LIST_PER_PAGE: 20
func applyConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	for key, value := range values {
		key = strings.ToUpper(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("apply config %s: %w", key, err)
		}
	}
	return nil
}

// IsProduction returns true when the console runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
