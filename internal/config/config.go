package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "MEDLAB"

// Config holds all configuration for the application
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Quote    QuoteConfig    `mapstructure:"quote"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// CatalogConfig selects where the product dataset comes from
type CatalogConfig struct {
	Source      string `mapstructure:"source"` // embedded | file | http | html | postgres
	Path        string `mapstructure:"path"`
	URL         string `mapstructure:"url"`
	ResetPolicy string `mapstructure:"reset_policy"` // reset | keep
}

// QuoteConfig holds where the request list is persisted
type QuoteConfig struct {
	Store      string   `mapstructure:"store"` // memory | file | redis
	Key        string   `mapstructure:"key"`
	LegacyKeys []string `mapstructure:"legacy_keys"`
	DataDir    string   `mapstructure:"data_dir"`
	FileName   string   `mapstructure:"file_name"`
	KeyPrefix  string   `mapstructure:"key_prefix"`
}

// RemoteConfig holds the supplier website client configuration
type RemoteConfig struct {
	BaseURL              string   `mapstructure:"base_url"`
	DatasetPath          string   `mapstructure:"dataset_path"`
	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	MaxWorkers           int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	UserAgent            string   `mapstructure:"user_agent"`
	Proxies              []string `mapstructure:"proxies"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads config.yaml from configFile, or from . and $HOME/.medlab when empty.
// A missing file falls back to defaults and MEDLAB_* environment variables.
// Non-nil flags override everything else.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.medlab")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &config, nil
}

// bindFlags maps flags named like "catalog-source" onto "catalog.source".
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	if err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	return nil
}

var flagKeys = map[string]string{
	"log-level":      "log.level",
	"catalog-source": "catalog.source",
	"catalog-path":   "catalog.path",
	"quote-store":    "quote.store",
	"data-dir":       "quote.data_dir",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("catalog.source", "embedded")
	v.SetDefault("catalog.path", "./catalog.json")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.reset_policy", "reset")

	v.SetDefault("quote.store", "file")
	v.SetDefault("quote.key", "medlab-quote.v1")
	v.SetDefault("quote.legacy_keys", []string{"medlab-quote", "requestItems"})
	v.SetDefault("quote.data_dir", "./data")
	v.SetDefault("quote.file_name", "state.json")
	v.SetDefault("quote.key_prefix", "medlab:")

	v.SetDefault("remote.base_url", "https://www.medlab.example")
	v.SetDefault("remote.dataset_path", "/data/catalog.json")
	v.SetDefault("remote.timeout", 30)
	v.SetDefault("remote.max_retries", 3)
	v.SetDefault("remote.max_workers", 4)
	v.SetDefault("remote.max_requests_per_second", 5)
	v.SetDefault("remote.user_agent", "medlab-catalog/1.0")
	v.SetDefault("remote.proxies", []string{})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "medlab")
	v.SetDefault("database.user", "medlab_user")
	v.SetDefault("database.password", "medlab_pass")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
}
