package fcm

import "time"

// Config holds the Firebase service account used for FCM HTTP v1.
// The SDK refreshes OAuth access tokens from these credentials.
type Config struct {
	CredentialsFile string        `env:"FCM_CREDENTIALS_FILE" validate:"required_without=CredentialsJSON"`
	CredentialsJSON string        `env:"FCM_CREDENTIALS_JSON" validate:"required_without=CredentialsFile"`
	ProjectID       string        `env:"FCM_PROJECT_ID"` // taken from the credentials when empty
	SendTimeout     time.Duration `env:"FCM_SEND_TIMEOUT" envDefault:"10s"`
}
