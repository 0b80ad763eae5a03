package fcm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/dmitrymomot/pushkit/pkg/config"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/push"
)

// Name identifies this provider in logs and error texts.
const Name = "fcm"

const defaultSendTimeout = 10 * time.Second

// Error codes reported in SendResult.Error as "fcm: <code>: <message>".
const (
	CodeUnregistered        = "registration-token-not-registered"
	CodeInvalidArgument     = "invalid-argument"
	CodeSenderIDMismatch    = "sender-id-mismatch"
	CodeQuotaExceeded       = "quota-exceeded"
	CodeUnavailable         = "unavailable"
	CodeInternal            = "internal"
	CodeThirdPartyAuthError = "third-party-auth-error"
	CodeUnknown             = "unknown"
)

// Sender is the part of *messaging.Client the adapter needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client delivers pushes to Android devices through Firebase Cloud Messaging.
// It implements push.Provider and is safe for concurrent use.
type Client struct {
	sender    Sender
	timeout   time.Duration
	configErr error
	configMsg string
	logger    *slog.Logger
}

var _ push.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for the Client.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSender replaces the Firebase messaging client. Credentials are not
// loaded when a sender is supplied.
func WithSender(s Sender) Option {
	return func(c *Client) {
		c.sender = s
	}
}

// New builds the FCM client once. Configuration problems do not fail
// construction: they are logged and every Send reports a config error
// without touching the network.
func New(ctx context.Context, cfg Config, opts ...Option) *Client {
	c := &Client{
		timeout: cfg.SendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = defaultSendTimeout
	}

	if err := config.Validate(cfg); err != nil {
		c.disable(errors.Join(ErrNotConfigured, err))
		return c
	}
	if c.sender != nil {
		return c
	}

	var credentials option.ClientOption
	if cfg.CredentialsJSON != "" {
		credentials = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	} else {
		credentials = option.WithCredentialsFile(cfg.CredentialsFile)
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, credentials)
	if err != nil {
		c.disable(errors.Join(ErrInitFailed, err))
		return c
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		c.disable(errors.Join(ErrInitFailed, err))
		return c
	}
	c.sender = client
	return c
}

// Disabled creates a client that reports ErrNotConfigured on every Send.
func Disabled(opts ...Option) *Client {
	c := &Client{timeout: defaultSendTimeout, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.disable(ErrNotConfigured)
	return c
}

func (c *Client) disable(err error) {
	c.configErr = err
	c.configMsg = push.PrefixConfigError + strings.ReplaceAll(err.Error(), "\n", "; ")
	c.sender = nil
	c.logger.LogAttrs(context.Background(), slog.LevelError, "FCM provider disabled",
		logger.Provider(Name),
		logger.Error(err),
	)
}

// Err returns the configuration error detected at construction, if any.
func (c *Client) Err() error {
	return c.configErr
}

// Send implements push.Provider. Data values are stringified since FCM data
// payloads only carry strings.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]any) push.SendResult {
	if c.configErr != nil {
		return push.SendResult{Error: c.configMsg}
	}
	if push.IsPlaceholderToken(token) {
		return push.PlaceholderTokenResult(Name)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.sender.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: push.StringifyData(data),
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	if err == nil {
		return push.SendResult{Success: true}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return push.SendResult{Error: fmt.Sprintf("%s%s request exceeded %s", push.PrefixTimeout, Name, c.timeout)}
	}
	return push.SendResult{Error: fmt.Sprintf("%s: %s: %s", Name, errorCode(err), err.Error())}
}

func errorCode(err error) string {
	switch {
	case messaging.IsUnregistered(err):
		return CodeUnregistered
	case messaging.IsInvalidArgument(err):
		return CodeInvalidArgument
	case messaging.IsSenderIDMismatch(err):
		return CodeSenderIDMismatch
	case messaging.IsQuotaExceeded(err):
		return CodeQuotaExceeded
	case messaging.IsUnavailable(err):
		return CodeUnavailable
	case messaging.IsInternal(err):
		return CodeInternal
	case messaging.IsThirdPartyAuthError(err):
		return CodeThirdPartyAuthError
	default:
		return CodeUnknown
	}
}
