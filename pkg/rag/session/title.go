package session

import (
	"strings"
	"unicode/utf8"

	"soulscript-chat-be/internal/pkg/apperror"
)

// DeriveTitle returns the first n characters of text, followed by "..."
// when text is longer.
func DeriveTitle(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

// NormalizeTurnText trims the submitted text and rejects empty or oversized input.
func NormalizeTurnText(text string, maxChars int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperror.Validation("message must not be empty")
	}
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		return "", apperror.Validation("message is too long")
	}
	return text, nil
}
