package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"chat_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"chat_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"chat_db"`

	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	JwtSecret    string `env:"JWT_SECRET"     envDefault:"dev-secret-change-me" validate:"min=8"`
	TokenTtlDays int    `env:"TOKEN_TTL_DAYS" envDefault:"7" validate:"min=1,max=365"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

// MarshalLogObject lets the config be logged without exposing
// JWT_SECRET or POSTGRES_PASSWORD.
func (c *Config) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("postgres_host", c.PostgresHost)
	enc.AddString("postgres_port", c.PostgresPort)
	enc.AddString("postgres_user", c.PostgresUser)
	enc.AddString("postgres_db", c.PostgresDb)
	enc.AddString("redis_host", c.RedisHost)
	enc.AddUint16("redis_port", c.RedisPort)
	enc.AddInt("token_ttl_days", c.TokenTtlDays)
	enc.AddUint16("http_server_port", c.HttpServerPort)
	return nil
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
