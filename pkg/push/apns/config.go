package apns

import "time"

// Config holds APNs token-based authentication settings.
// Exactly one of KeyPath and KeyPEM is needed; KeyPEM wins when both are set.
type Config struct {
	KeyPath     string        `env:"APNS_KEY_PATH" validate:"required_without=KeyPEM"`
	KeyPEM      string        `env:"APNS_KEY_PEM" validate:"required_without=KeyPath"`
	KeyID       string        `env:"APNS_KEY_ID" validate:"required"`
	TeamID      string        `env:"APNS_TEAM_ID" validate:"required"`
	Topic       string        `env:"APNS_TOPIC" validate:"required"` // app bundle id
	Production  bool          `env:"APNS_PRODUCTION" envDefault:"false"`
	SendTimeout time.Duration `env:"APNS_SEND_TIMEOUT" envDefault:"10s"`
}
