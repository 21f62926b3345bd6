package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain digits", "0772000111", "0772000111"},
		{"spaces and dashes", "0772 000-111", "0772000111"},
		{"parentheses", "(0772) 000 111", "0772000111"},
		{"international plus", "+256772000111", "+256772000111"},
		{"double zero prefix", "00256772000111", "+256772000111"},
		{"leading whitespace", "  0772000111", "0772000111"},
		{"letters dropped", "O772ooo111", "772111"},
		{"empty", "", ""},
		{"only junk", "abc-", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.input))
		})
	}
}

func TestSamePhone(t *testing.T) {
	assert.True(t, SamePhone("0772 000 111", "0772000111"))
	assert.False(t, SamePhone("0772000111", "0772000112"))
	assert.False(t, SamePhone("", ""), "empty numbers never match")
}
