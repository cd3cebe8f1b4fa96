package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

type Config struct {
	Port               int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	StoreDriver        string        `env:"STORE_DRIVER,default=postgres" validate:"oneof=postgres badger"`
	DatabaseURL        string        `env:"DATABASE_URL" validate:"required_if=StoreDriver postgres"`
	BadgerPath         string        `env:"BADGER_PATH,default=data/messages" validate:"required_if=StoreDriver badger"`
	RedisURL           string        `env:"REDIS_URL"`
	RedisChannelPrefix string        `env:"REDIS_CHANNEL_PREFIX,default=chat:room:" validate:"required"`
	AllowedOrigins     string        `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`
	DefaultRoom        string        `env:"DEFAULT_ROOM,default=general" validate:"required"`
	ClientSendBuffer   int           `env:"CLIENT_SEND_BUFFER,default=256" validate:"min=1"`
	MaxMessageSize     int64         `env:"MAX_MESSAGE_SIZE,default=524288" validate:"min=1024"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s" validate:"gt=0"`
}

// Load reads .env.local then .env when present, then the process
// environment. Variables already set in the environment win.
func Load() (*Config, error) {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}
	return FromEnviron()
}

func FromEnviron() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c *Config) RelayEnabled() bool {
	return c.RedisURL != ""
}
