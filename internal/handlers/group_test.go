package handlers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateGroupFields(t *testing.T) {
	assert.Empty(t, validateGroupFields("Kampala Traders", "Weekly savings", "School fees"))

	// Limits count characters, not bytes; multibyte names at the limit pass.
	assert.Empty(t, validateGroupFields(strings.Repeat("é", 100), "", ""))
	assert.Empty(t, validateGroupFields("ok", strings.Repeat("é", 500), ""))
	assert.Empty(t, validateGroupFields("ok", "", strings.Repeat("あ", 200)))

	assert.NotEmpty(t, validateGroupFields(strings.Repeat("a", 101), "", ""))
	assert.NotEmpty(t, validateGroupFields("ok", strings.Repeat("b", 501), ""))
	assert.NotEmpty(t, validateGroupFields("ok", "", strings.Repeat("c", 201)))
}
