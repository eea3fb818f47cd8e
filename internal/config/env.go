package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".shopguild/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"shopguild/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type CacheEnv struct {
	MaxAge     time.Duration `envconfig:"CACHE_MAX_AGE" default:"5m"`
	MaxEntries int           `envconfig:"CACHE_MAX_ENTRIES" default:"0"`
}

type UpstreamEnv struct {
	URL     string        `envconfig:"UPSTREAM_URL" required:"true"`
	Timeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	// OAuth2 client credentials; leave ClientID empty to call without a token.
	ClientID     string   `envconfig:"UPSTREAM_CLIENT_ID"`
	ClientSecret string   `envconfig:"UPSTREAM_CLIENT_SECRET"`
	TokenURL     string   `envconfig:"UPSTREAM_TOKEN_URL"`
	Scopes       []string `envconfig:"UPSTREAM_SCOPES"`
}

type PolicyEnv struct {
	File string `envconfig:"POLICY_FILE"`
}

type Env struct {
	BaseEnv
	StorageEnv
	CacheEnv
	UpstreamEnv
	PolicyEnv
}

const namespace = "SHOPGUILD"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "local":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required when STORAGE_TYPE=s3", namespace)
		}
	default:
		return fmt.Errorf("unknown storage type %q", e.StorageEnv.Type)
	}
	if e.MaxAge <= 0 {
		return fmt.Errorf("%s_CACHE_MAX_AGE must be positive", namespace)
	}
	if e.ClientID != "" && e.TokenURL == "" {
		return fmt.Errorf("%s_UPSTREAM_TOKEN_URL is required with a client ID", namespace)
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func (e *BaseEnv) Addr() string {
	return e.HTTPHost + ":" + e.HTTPPort
}

func BaseEnvFromEnv(env *Env) *BaseEnv {
	return &env.BaseEnv
}

func StorageEnvFromEnv(env *Env) *StorageEnv {
	return &env.StorageEnv
}
