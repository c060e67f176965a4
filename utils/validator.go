// utils/validator.go - Input validation
package utils

import (
	"strings"
)

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// SanitizeOptional sanitizes a nullable string and collapses blank values to nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := SanitizeInput(*input)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
