package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue replaces the value of any sensitive attribute.
const RedactedValue = "[REDACTED]"

// Attribute keys are normalised (lower case, separators removed) and masked
// when they end in one of these.
var sensitiveSuffixes = []string{
	"authorization",
	"jwt",
	"token",
	"secret",
	"passphrase",
	"password",
	"privatekey",
	"keypair",
}

func normaliseKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(key))
}

// IsSensitive reports whether values logged under key are masked, e.g.
// "jwt", "rpc_token" or "Keystore-Passphrase".
func IsSensitive(key string) bool {
	normalised := normaliseKey(key)
	if normalised == "" {
		return false
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(normalised, suffix) {
			return true
		}
	}
	return false
}

// MaskValue returns RedactedValue, leaving blank values as they are.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// redact is applied by the handler to every non-group attribute, so keys
// nested in groups are masked too.
func redact(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}
