package utils

import (
	"crypto/rand"
	"errors"
)

// Invitation codes are short public tokens carried in SMS/WhatsApp links.
// Ambiguous characters (0/O, 1/I) are excluded.
const inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	InviteCodeLength   = 8
	maxInviteCodeTries = 5
)

// ErrCodeSpaceExhausted is returned when a unique invitation code could not
// be produced within the retry ceiling.
var ErrCodeSpaceExhausted = errors.New("invitation code space exhausted")

// GenerateInviteCode returns a random invitation code. Uniqueness is not
// guaranteed; callers must check against existing invitations.
func GenerateInviteCode() string {
	buf := make([]byte, InviteCodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	for i, b := range buf {
		buf[i] = inviteCodeAlphabet[int(b)%len(inviteCodeAlphabet)]
	}
	return string(buf)
}

// UniqueInviteCode generates codes until exists reports a free one, trying at
// most a fixed number of times before giving up with ErrCodeSpaceExhausted.
func UniqueInviteCode(exists func(code string) (bool, error)) (string, error) {
	for i := 0; i < maxInviteCodeTries; i++ {
		code := GenerateInviteCode()
		taken, err := exists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
