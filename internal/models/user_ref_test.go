package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRefUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare string", `"abc-123"`, "abc-123"},
		{"bare string with whitespace", `" abc-123 "`, "abc-123"},
		{"expanded object", `{"id": "abc-123"}`, "abc-123"},
		{"expanded object with extras", `{"id": "abc-123", "name": "Amina", "phone": "0772000111"}`, "abc-123"},
		{"empty string", `""`, ""},
		{"object without id", `{"name": "Amina"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref UserRef
			require.NoError(t, json.Unmarshal([]byte(tt.input), &ref))
			assert.Equal(t, tt.want, ref.ID())
			assert.Equal(t, tt.want == "", ref.IsZero())
		})
	}
}

func TestUserRefUnmarshalRejectsMalformed(t *testing.T) {
	var ref UserRef
	assert.Error(t, json.Unmarshal([]byte(`42`), &ref))
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &ref))
}

func TestUserRefMarshal(t *testing.T) {
	out, err := json.Marshal(NewUserRef(" abc-123 "))
	require.NoError(t, err)
	assert.JSONEq(t, `"abc-123"`, string(out))
}

func TestUserRefFormsInterchangeable(t *testing.T) {
	var bare, expanded UserRef
	require.NoError(t, json.Unmarshal([]byte(`"u-9"`), &bare))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u-9"}`), &expanded))
	assert.Equal(t, bare.ID(), expanded.ID())
}
