package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Size limits
const (
	MaxIDLength       = 128
	MaxCategoryLength = 64
	MaxPathLength     = 4096
	MaxWriteSize      = 64 * 1024 // 64KB - single write to a session
	MaxDimension      = 1000      // cols or rows
)

var (
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateString validates a string field with length and content checks
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

// ValidateSessionID validates a caller-chosen session id. Ids are opaque but
// must be printable so they stay readable in logs and URLs.
func ValidateSessionID(id string) error {
	if err := ValidateString(id, "session_id", 1, MaxIDLength, true); err != nil {
		return err
	}
	for _, r := range id {
		if !unicode.IsPrint(r) {
			return fmt.Errorf("session_id contains invalid characters")
		}
	}
	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !ToolIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	if category != "" && !categoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateWorkingDir validates an optional working directory path
func ValidateWorkingDir(dir string) error {
	return ValidateString(dir, "cwd", 0, MaxPathLength, false)
}

// ValidateWrite validates the payload of a write to a session
func ValidateWrite(data string) error {
	if len(data) > MaxWriteSize {
		return fmt.Errorf("data size %d bytes exceeds maximum %d bytes", len(data), MaxWriteSize)
	}
	return nil
}

// ValidateGeometry validates terminal dimensions
func ValidateGeometry(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("cols and rows must be positive")
	}
	if cols > MaxDimension || rows > MaxDimension {
		return fmt.Errorf("cols and rows must not exceed %d", MaxDimension)
	}
	return nil
}
