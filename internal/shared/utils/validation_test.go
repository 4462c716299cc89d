package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "win-1", false},
		{"with dots and colons", "app:term.2", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
		{"control character", "a\nb", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateToolID(t *testing.T) {
	assert.NoError(t, ValidateToolID("terminal.init", "tool_id", true))
	assert.Error(t, ValidateToolID("", "tool_id", true))
	assert.Error(t, ValidateToolID("terminal init", "tool_id", true))
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory("", false))
	assert.NoError(t, ValidateCategory("terminal", false))
	assert.Error(t, ValidateCategory("Terminal", false))
}

func TestValidateWrite(t *testing.T) {
	assert.NoError(t, ValidateWrite("ls -la\n"))
	assert.Error(t, ValidateWrite(strings.Repeat("x", MaxWriteSize+1)))
}

func TestValidateGeometry(t *testing.T) {
	assert.NoError(t, ValidateGeometry(80, 24))
	assert.Error(t, ValidateGeometry(0, 24))
	assert.Error(t, ValidateGeometry(80, -1))
	assert.Error(t, ValidateGeometry(MaxDimension+1, 24))
}
