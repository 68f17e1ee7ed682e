package config

import (
	"errors"
	"flag"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`

	ShortenerAPIURL  string        `env:"SHORTENER_API_URL" envDefault:"https://adlinkfly.com/api"`
	DefaultAPIKey    string        `env:"SHORTENER_API_KEY"`
	ShortenTimeout   time.Duration `env:"SHORTEN_TIMEOUT" envDefault:"10s"`
	ExcludedPrefixes []string      `env:"EXCLUDED_PREFIXES" envSeparator:","`

	ServerAddress string `env:"SERVER_ADDRESS"`

	FileStoragePath string `env:"FILE_STORAGE_PATH"`
	DataBaseDSN     string `env:"DATABASE_DSN"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type StorageKind string

const (
	StorageMemory   StorageKind = "memory"
	StorageFile     StorageKind = "file"
	StorageDatabase StorageKind = "database"
	StorageRedis    StorageKind = "redis"
)

var ErrNoBotToken = errors.New("telegram bot token is not set")

// New reads .env (if any) and the environment.
func New() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseFlags fills values the environment left empty. The environment wins.
func (c *Config) ParseFlags(fs *flag.FlagSet, args []string) error {
	a := fs.String("a", ":8000", "health check server address")
	t := fs.String("t", "", "telegram bot token")
	f := fs.String("f", "", "credentials file path")
	d := fs.String("d", "", "postgres dsn for credentials")
	r := fs.String("r", "", "redis address for credentials")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.ServerAddress == "" {
		c.ServerAddress = *a
	}
	if c.BotToken == "" {
		c.BotToken = *t
	}
	if c.FileStoragePath == "" {
		c.FileStoragePath = *f
	}
	if c.DataBaseDSN == "" {
		c.DataBaseDSN = *d
	}
	if c.RedisAddr == "" {
		c.RedisAddr = *r
	}
	return nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrNoBotToken
	}
	return nil
}

// Storage picks the credential backend: database, then redis, then file, then memory.
func (c *Config) Storage() StorageKind {
	switch {
	case c.DataBaseDSN != "":
		return StorageDatabase
	case c.RedisAddr != "":
		return StorageRedis
	case c.FileStoragePath != "":
		return StorageFile
	default:
		return StorageMemory
	}
}
