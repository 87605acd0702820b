// Package config loads the settings of the minechat programs. Values come
// from an optional .env file, then the environment, and are finally
// overridden by command-line flags bound to the same structs.
package config

import (
	"errors"
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalid marks every configuration failure.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New()

// Listen configures the listener program.
type Listen struct {
	Host           string        `env:"MINECHAT_HOST,default=minechat.dvmn.org" validate:"required,hostname_rfc1123|ip"`
	Port           int           `env:"MINECHAT_PORT,default=5000" validate:"min=1,max=65535"`
	History        string        `env:"MINECHAT_HISTORY,default=minechat_history.txt" validate:"required"`
	Transport      string        `env:"MINECHAT_TRANSPORT,default=tcp" validate:"oneof=tcp ws"`
	ReconnectDelay time.Duration `env:"MINECHAT_RECONNECT_DELAY,default=5s" validate:"gt=0"`
	LogLevel       string        `env:"MINECHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
}

// Send configures the sender program.
type Send struct {
	Host        string `env:"MINECHAT_HOST,default=minechat.dvmn.org" validate:"required,hostname_rfc1123|ip"`
	Port        int    `env:"MINECHAT_WRITE_PORT,default=5050" validate:"min=1,max=65535"`
	Credentials string `env:"MINECHAT_CREDENTIALS,default=credentials.json" validate:"required"`
	Nickname    string `env:"MINECHAT_NICKNAME"`
	Token       string `env:"MINECHAT_TOKEN"`
	Transport   string `env:"MINECHAT_TRANSPORT,default=tcp" validate:"oneof=tcp ws"`
	LogLevel    string `env:"MINECHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`

	// Message is only taken from the command line.
	Message string `validate:"required"`
}

// Server configures the development server.
type Server struct {
	ListenAddress string `env:"MINECHAT_SERVER_LISTEN,default=:5000" validate:"required,hostname_port"`
	WriteAddress  string `env:"MINECHAT_SERVER_WRITE,default=:5050" validate:"required,hostname_port"`
	LogLevel      string `env:"MINECHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
}

// Load reads a .env file from the working directory, when there is one, and
// fills a T from the environment.
func Load[T any]() (T, error) {
	var cfg T
	// A missing .env is not an error; existing variables take precedence.
	_ = godotenv.Load()

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

// Validate checks cfg once flags have been applied.
func Validate(cfg any) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// NewLogger builds the console logger used by every program.
func NewLogger(level string) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomic
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}
