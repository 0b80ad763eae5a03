package push_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/pushkit/pkg/push"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errText   string
		category  push.Category
		permanent bool
	}{
		{"apns: 400 BadDeviceToken", push.CategoryPermanentInvalidToken, true},
		{"apns: 410 Unregistered", push.CategoryPermanentInvalidToken, true},
		{"apns: 400 DeviceTokenNotForTopic", push.CategoryPermanentInvalidToken, true},
		{"fcm: registration-token-not-registered: Requested entity was not found.", push.CategoryPermanentInvalidToken, true},
		{"fcm: invalid-argument: The registration token is not a valid FCM registration token", push.CategoryPermanentInvalidToken, true},
		{"messaging/invalid-registration-token", push.CategoryPermanentInvalidToken, true},
		{"placeholder-token: apns rejected a client placeholder instead of a device token", push.CategoryPermanentInvalidToken, true},
		{"timeout: apns request exceeded 10s", push.CategoryTransient, false},
		{"apns: Post \"https://api.push.apple.com\": dial tcp: i/o timeout", push.CategoryTransient, false},
		{"apns: 429 TooManyRequests", push.CategoryTransient, false},
		{"apns: 403 InvalidProviderToken", push.CategoryTransient, false},
		{"apns: 503 ServiceUnavailable", push.CategoryTransient, false},
		{"fcm: quota-exceeded: rate limited", push.CategoryTransient, false},
		{"fcm: invalid-argument: message payload too large", push.CategoryTransient, false},
		{"config-error: apns key file missing", push.CategoryConfigError, false},
		{"unsupported-platform: \"web\" has no push transport", push.CategoryUnsupportedPlatform, false},
		{"", push.CategoryTransient, false},
	}
	for _, tt := range tests {
		t.Run(tt.errText, func(t *testing.T) {
			t.Parallel()
			v := push.Classify(tt.errText)
			assert.Equal(t, tt.category, v.Category)
			assert.Equal(t, tt.permanent, v.Permanent)
		})
	}
}

func TestClassify_TimeoutNeverPermanent(t *testing.T) {
	t.Parallel()

	// a timeout wrapping provider text must not evict
	v := push.Classify("timeout: waiting for Unregistered device")
	assert.False(t, v.Permanent)
}

func TestIsPlaceholderToken(t *testing.T) {
	t.Parallel()

	assert.True(t, push.IsPlaceholderToken("ios_user_abc123"))
	assert.True(t, push.IsPlaceholderToken("android_user_42"))
	assert.False(t, push.IsPlaceholderToken("ios_user_"))
	assert.False(t, push.IsPlaceholderToken("a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"))
	assert.False(t, push.IsPlaceholderToken("fcm:APA91bH-ios_user_x"))
}
