package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tailnetops/tailscale-go/pkg/logging"
	"github.com/tailnetops/tailscale-go/pkg/tailscale"
	"github.com/tailnetops/tailscale-go/pkg/tokenstore"
)

// config is the resolved tsadm configuration. Sources, lowest to highest
// precedence: YAML config file, TS_* environment variables, flags.
type config struct {
	Tailnet           string        `yaml:"tailnet"`
	APIKey            string        `yaml:"api_key"`
	OAuthClientID     string        `yaml:"oauth_client_id"`
	OAuthClientSecret string        `yaml:"oauth_client_secret"`
	Timeout           time.Duration `yaml:"timeout"`
	LogLevel          string        `yaml:"log_level"`
	TokenFile         string        `yaml:"token_file"`
	Redis             redisConfig   `yaml:"redis"`
}

type redisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// loadConfig resolves the configuration from all sources.
func loadConfig() (*config, error) {
	// A .env file is optional; ignore a missing one.
	_ = godotenv.Load()

	cfg := &config{}

	if flagConfig != "" {
		data, err := os.ReadFile(flagConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", flagConfig, err)
		}
	}

	applyEnv(cfg)
	if err := applyFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *config) {
	setIfPresent := func(dst *string, key string) {
		if value := os.Getenv(key); value != "" {
			*dst = value
		}
	}
	setIfPresent(&cfg.Tailnet, "TS_TAILNET")
	setIfPresent(&cfg.APIKey, "TS_API_KEY")
	setIfPresent(&cfg.OAuthClientID, "TS_API_CLIENT_ID")
	setIfPresent(&cfg.OAuthClientSecret, "TS_API_CLIENT_SECRET")
	setIfPresent(&cfg.LogLevel, "TS_LOG_LEVEL")
	setIfPresent(&cfg.TokenFile, "TS_TOKEN_FILE")
	setIfPresent(&cfg.Redis.Address, "TS_REDIS_ADDR")
}

func applyFlags(cfg *config) error {
	if flagTailnet != "" {
		cfg.Tailnet = flagTailnet
	}
	if flagAPIKey != "" {
		cfg.APIKey = flagAPIKey
	}
	if flagClientID != "" {
		cfg.OAuthClientID = flagClientID
	}
	if flagClientSecret != "" {
		cfg.OAuthClientSecret = flagClientSecret
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagTokenFile != "" {
		cfg.TokenFile = flagTokenFile
	}
	if flagRedisAddr != "" {
		cfg.Redis.Address = flagRedisAddr
	}
	if flagTimeout != "" {
		timeout, err := time.ParseDuration(flagTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout value %q: %w", flagTimeout, err)
		}
		cfg.Timeout = timeout
	}
	return nil
}

// newClient builds a tailscale client from the resolved configuration and
// sets up logging and token persistence.
func newClient() (*tailscale.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.Setup(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	opts := []tailscale.Option{
		tailscale.WithLogger(logger),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, tailscale.WithTimeout(cfg.Timeout))
	}

	storage, err := newTokenStorage(cfg)
	if err != nil {
		return nil, err
	}
	if storage != nil {
		opts = append(opts, tailscale.WithTokenStorage(storage))
	}

	return tailscale.New(tailscale.Config{
		Tailnet:           cfg.Tailnet,
		APIKey:            cfg.APIKey,
		OAuthClientID:     cfg.OAuthClientID,
		OAuthClientSecret: cfg.OAuthClientSecret,
	}, opts...)
}

// newTokenStorage picks the token store: Redis wins over a token file, and
// neither means tokens stay in-process.
func newTokenStorage(cfg *config) (tailscale.TokenStorage, error) {
	switch {
	case cfg.Redis.Address != "":
		store, err := tokenstore.NewRedis(tokenstore.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case cfg.TokenFile != "":
		store, err := tokenstore.NewFile(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}
