package logger

import (
	"log/slog"
	"strconv"
)

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

// Platform records the device platform under the key "platform".
func Platform(p string) slog.Attr {
	return slog.String("platform", p)
}

// Provider records the push transport name under the key "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Category records a failure category under the key "category".
func Category(c string) slog.Attr {
	return slog.String("category", c)
}

// Token records a device token under the key "token".
// Only the last 6 characters are kept; push tokens are credentials.
func Token(token string) slog.Attr {
	return slog.String("token", MaskToken(token))
}

// MaskToken hides all but the trailing 6 characters of token.
func MaskToken(token string) string {
	const visible = 6
	if len(token) <= visible {
		return "***"
	}
	return "***" + token[len(token)-visible:]
}

// Count records an integer under the given key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
