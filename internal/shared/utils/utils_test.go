package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage("hello there"))
	assert.Error(t, ValidateMessage(""))
	assert.Error(t, ValidateMessage(strings.Repeat("a", MaxMessageSize+1)))
	assert.Error(t, ValidateMessage("bad\x00byte"))
}

func TestValidateMessageExcessiveWhitespace(t *testing.T) {
	err := ValidateMessage("a" + strings.Repeat(" ", 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whitespace")
}

func TestValidateStringOptional(t *testing.T) {
	assert.NoError(t, ValidateString("", "nickname", 3, 10, false))
	assert.Error(t, ValidateString("", "nickname", 3, 10, true))
	assert.Error(t, ValidateString("ab", "nickname", 3, 10, true))
}

func TestHashDeterministic(t *testing.T) {
	h := DefaultHasher()
	first := h.HashString("main.go")
	second := h.HashString("main.go")
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, h.HashString("main_test.go"))
}

func TestShortHash(t *testing.T) {
	h := DefaultHasher()
	full := h.HashString("README.md")
	assert.Equal(t, full[:8], ShortHash(full))
	assert.Equal(t, "abc", ShortHash("abc"))
}
