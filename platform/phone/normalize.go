// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const defaultRegion = "EC"

// SessionKey turns a WhatsApp sender identifier into the key used for
// session lookup. Gateway payloads arrive as JIDs ("59399...@s.whatsapp.net");
// the number part is normalized to E.164 so the same person maps to the same
// session regardless of formatting.
func SessionKey(sender string) string {
	if i := strings.IndexByte(sender, '@'); i >= 0 {
		sender = sender[:i]
	}
	if sender != "" && !strings.HasPrefix(sender, "+") {
		sender = "+" + sender
	}
	return NormalizeE164(sender)
}

// NormalizeE164 formats a phone number to E.164. If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
