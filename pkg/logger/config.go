package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrInvalidConfig is returned by NewFromConfig for unknown levels or formats.
var ErrInvalidConfig = errors.New("logger: invalid configuration")

// Config is the environment driven logger setup. Level and Format override
// the defaults picked from Env.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_SERVICE" envDefault:"pushkit"`
	Level   string `env:"LOG_LEVEL"`  // debug, info, warn, error
	Format  string `env:"LOG_FORMAT"` // json, text
	Trace   bool   `env:"LOG_TRACE_IDS" envDefault:"true"`
}

// NewFromConfig builds a logger from cfg. Extra options are applied last.
func NewFromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	base := []Option{WithEnvironment(cfg.Env, cfg.Service)}

	if cfg.Level != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("%w: level %q", ErrInvalidConfig, cfg.Level)
		}
		base = append(base, WithLevel(level))
	}
	if cfg.Format != "" {
		f := Format(strings.ToLower(cfg.Format))
		if f != FormatJSON && f != FormatText {
			return nil, fmt.Errorf("%w: format %q", ErrInvalidConfig, cfg.Format)
		}
		base = append(base, WithFormat(f))
	}
	if cfg.Trace {
		base = append(base, WithTraceContext())
	}

	return New(append(base, opts...)...), nil
}
