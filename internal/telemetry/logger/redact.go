package logger

import (
	"log/slog"
	"strings"
)

// Key fragments that mark an attribute as a credential.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"bearer",
	"authorization",
}

// jwtPrefix is the base64url encoding of `{"` which every JWT header starts with.
const jwtPrefix = "eyJ"

const redactedValue = "***REDACTED***"

// redactSensitive redacts an attribute whose key names a credential, and
// masks JWT-shaped values under any other key.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	strVal := a.Value.String()
	if strVal == "" {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}
	if IsSensitiveValue(strVal) {
		return slog.String(a.Key, maskValue(strVal))
	}
	return a
}

// maskValue keeps the JWT prefix and the last 4 characters.
func maskValue(value string) string {
	if len(value) <= len(jwtPrefix)+8 {
		return jwtPrefix + "***"
	}
	return jwtPrefix + "..." + value[len(value)-4:]
}

// RedactString masks value if it looks like a token; other values pass through.
func RedactString(value string) string {
	if IsSensitiveValue(value) {
		return maskValue(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value looks like a JWT.
func IsSensitiveValue(value string) bool {
	return strings.HasPrefix(value, jwtPrefix) && strings.Count(value, ".") == 2
}
