package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Token store backends.
const (
	TokenStoreFile  = "file"
	TokenStoreRedis = "redis"
)

// Config holds runtime configuration for the sealion client.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`

	APIURL  string        `envconfig:"SEALION_API_URL" default:"http://127.0.0.1:8000/api"`
	Timeout time.Duration `envconfig:"SEALION_TIMEOUT" default:"30s"`

	TokenStore    string `envconfig:"SEALION_TOKEN_STORE" default:"file"`
	TokenFile     string `envconfig:"SEALION_TOKEN_FILE"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"SEALION_REDIS_PREFIX" default:"sealion:"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warn"`
}

// MockConfig holds configuration for the in-memory mock API server.
type MockConfig struct {
	AppEnv        string        `envconfig:"APP_ENV" default:"development"`
	Addr          string        `envconfig:"MOCK_ADDR" default:"127.0.0.1:8000"`
	JWTSecret     string        `envconfig:"MOCK_JWT_SECRET" default:"sealion-mock-secret"`
	AccessTTL     time.Duration `envconfig:"MOCK_ACCESS_TTL" default:"5m"`
	RefreshTTL    time.Duration `envconfig:"MOCK_REFRESH_TTL" default:"24h"`
	Seed          bool          `envconfig:"MOCK_SEED" default:"true"`
	ReadTimeout   time.Duration `envconfig:"MOCK_READ_TIMEOUT" default:"15s"`
	WriteTimeout  time.Duration `envconfig:"MOCK_WRITE_TIMEOUT" default:"15s"`
	TokenRateHits int           `envconfig:"MOCK_TOKEN_RATE" default:"30"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
}

// LoadConfig reads client configuration from the environment, after loading a
// .env file from the working directory when one exists.
func LoadConfig() (*Config, error) {
	loadDotEnv()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.TokenFile == "" {
		path, err := defaultTokenFile()
		if err != nil {
			return nil, err
		}
		cfg.TokenFile = path
	}
	return &cfg, nil
}

// LoadMockConfig reads mock server configuration from the environment.
func LoadMockConfig() (*MockConfig, error) {
	loadDotEnv()
	var cfg MockConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("mock jwt secret must be provided")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("mock token ttl must be positive")
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid SEALION_API_URL %q", c.APIURL)
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreRedis:
	default:
		return fmt.Errorf("unknown SEALION_TOKEN_STORE %q", c.TokenStore)
	}
	if c.Timeout <= 0 {
		return errors.New("SEALION_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// IsProduction returns true when the mock server runs in production mode.
func (c *MockConfig) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

func loadDotEnv() {
	if InTestMode() {
		return
	}
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()
}

func defaultTokenFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "sealion", "tokens.json"), nil
}
