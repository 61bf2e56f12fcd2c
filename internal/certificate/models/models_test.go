package models

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	code, err := NewCode(bytes.NewReader([]byte{0x8a, 0x2b, 0x9c, 0x1d}))
	require.NoError(t, err)
	assert.Equal(t, "8A2B9C1D", code)
	assert.True(t, IsValidCode(code))

	random, err := NewCode(nil)
	require.NoError(t, err)
	assert.True(t, IsValidCode(random))
}

func TestNewCodeShortRead(t *testing.T) {
	_, err := NewCode(bytes.NewReader([]byte{0x01}))
	assert.Error(t, err)
}

func TestIsValidCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"8A2B9C1D", true},
		{"00000000", true},
		{"8a2b9c1d", false},
		{"8A2B9C1", false},
		{"8A2B9C1DE", false},
		{"ZZZZZZZZ", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidCode(tt.code))
		})
	}
	assert.Equal(t, "8A2B9C1D", NormalizeCode(" 8a2b9c1d "))
}
