// Package config loads process configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env file) and
// github.com/caarlos0/env/v11 (struct tag parsing). Load caches each
// configuration type for the lifetime of the process; Parse reads the
// environment every time and supports a variable-name prefix. Validate runs
// github.com/go-playground/validator/v10 rules declared with `validate` tags.
//
//	type Config struct {
//		Topic   string        `env:"APNS_TOPIC" validate:"required"`
//		Timeout time.Duration `env:"APNS_SEND_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	if err := config.Validate(cfg); err != nil {
//		return err
//	}
//
// Errors are sentinel values (ErrParsingConfig, ErrInvalidConfig, ...) joined
// with the underlying cause, so errors.Is works on the result.
package config
