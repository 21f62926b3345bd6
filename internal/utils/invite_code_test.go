package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateInviteCode()
		assert.Len(t, code, InviteCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(inviteCodeAlphabet, r),
				"code %q contains %q outside the alphabet", code, r)
		}
		seen[code] = true
	}
	// 100 draws from a 32^8 space should never collide.
	assert.Len(t, seen, 100)
}

func TestUniqueInviteCode(t *testing.T) {
	t.Run("first free code wins", func(t *testing.T) {
		calls := 0
		code, err := UniqueInviteCode(func(string) (bool, error) {
			calls++
			return false, nil
		})
		require.NoError(t, err)
		assert.Len(t, code, InviteCodeLength)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries past collisions", func(t *testing.T) {
		calls := 0
		code, err := UniqueInviteCode(func(string) (bool, error) {
			calls++
			return calls < 3, nil
		})
		require.NoError(t, err)
		assert.NotEmpty(t, code)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up at the retry ceiling", func(t *testing.T) {
		calls := 0
		code, err := UniqueInviteCode(func(string) (bool, error) {
			calls++
			return true, nil
		})
		assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
		assert.Empty(t, code)
		assert.Equal(t, maxInviteCodeTries, calls)
	})

	t.Run("propagates lookup errors", func(t *testing.T) {
		boom := errors.New("connection lost")
		_, err := UniqueInviteCode(func(string) (bool, error) {
			return false, boom
		})
		assert.ErrorIs(t, err, boom)
	})
}
