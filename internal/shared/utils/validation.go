package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Message size limits (in bytes)
const (
	MaxMessageSize = 16 * 1024 // 16KB - single message size limit
)

// ValidateString validates a string field with length constraints
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateMessage validates a chat message
func ValidateMessage(message string) error {
	if err := ValidateString(message, "message", 1, MaxMessageSize, true); err != nil {
		return err
	}

	// Check for excessive whitespace (potential DoS)
	whitespaceCount := 0
	for _, r := range message {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			whitespaceCount++
		}
	}

	if whitespaceCount > len(message)/2 {
		return fmt.Errorf("message contains excessive whitespace")
	}

	return nil
}
