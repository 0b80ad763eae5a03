package apns

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sideshow/apns2"
	apnspayload "github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"

	"github.com/dmitrymomot/pushkit/pkg/config"
	"github.com/dmitrymomot/pushkit/pkg/logger"
	"github.com/dmitrymomot/pushkit/pkg/push"
)

// Name identifies this provider in logs and error texts.
const Name = "apns"

const defaultSendTimeout = 10 * time.Second

// Pusher is the part of *apns2.Client the adapter needs.
type Pusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// Client delivers pushes to iOS devices. It implements push.Provider and is
// safe for concurrent use.
type Client struct {
	pusher    Pusher
	topic     string
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

// WithPusher replaces the HTTP/2 transport. The auth key is not loaded when a
// pusher is supplied.
func WithPusher(p Pusher) Option {
	return func(c *Client) {
		c.pusher = p
	}
}

// New builds the APNs client once. Configuration problems do not fail
// construction: they are logged and every Send reports a config error
// without touching the network.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		topic:   cfg.Topic,
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
	if c.pusher != nil {
		return c
	}

	key, err := loadKey(cfg)
	if err != nil {
		c.disable(errors.Join(ErrInvalidKey, err))
		return c
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: key,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		c.pusher = client.Production()
	} else {
		c.pusher = client.Development()
	}
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
	c.pusher = nil
	c.logger.LogAttrs(context.Background(), slog.LevelError, "APNs provider disabled",
		logger.Provider(Name),
		logger.Error(err),
	)
}

// Err returns the configuration error detected at construction, if any.
func (c *Client) Err() error {
	return c.configErr
}

// Send implements push.Provider.
func (c *Client) Send(ctx context.Context, deviceToken, title, body string, data map[string]any) push.SendResult {
	if c.configErr != nil {
		return push.SendResult{Error: c.configMsg}
	}
	if push.IsPlaceholderToken(deviceToken) {
		return push.PlaceholderTokenResult(Name)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.pusher.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       c.topic,
		Priority:    apns2.PriorityHigh,
		PushType:    apns2.PushTypeAlert,
		Payload:     buildPayload(title, body, data),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return push.SendResult{Error: fmt.Sprintf("%s%s request exceeded %s", push.PrefixTimeout, Name, c.timeout)}
		}
		return push.SendResult{Error: Name + ": " + err.Error()}
	}
	if !res.Sent() {
		return push.SendResult{Error: fmt.Sprintf("%s: %d %s", Name, res.StatusCode, res.Reason)}
	}
	return push.SendResult{Success: true}
}

func buildPayload(title, body string, data map[string]any) *apnspayload.Payload {
	p := apnspayload.NewPayload().
		AlertTitle(title).
		AlertBody(body).
		Sound("default")
	for k, v := range data {
		if k == "aps" {
			continue
		}
		p.Custom(k, v)
	}
	return p
}

func loadKey(cfg Config) (*ecdsa.PrivateKey, error) {
	if cfg.KeyPEM != "" {
		return token.AuthKeyFromBytes([]byte(cfg.KeyPEM))
	}
	return token.AuthKeyFromFile(cfg.KeyPath)
}
