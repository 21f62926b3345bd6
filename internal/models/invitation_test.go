package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from string
		to   string
		want bool
	}{
		{InvitationPending, InvitationSent, true},
		{InvitationPending, InvitationAccepted, true},
		{InvitationPending, InvitationExpired, true},
		{InvitationPending, InvitationFailed, true},
		{InvitationSent, InvitationAccepted, true},
		{InvitationSent, InvitationExpired, true},
		{InvitationSent, InvitationFailed, true},
		// terminal states never move again
		{InvitationAccepted, InvitationPending, false},
		{InvitationAccepted, InvitationExpired, false},
		{InvitationExpired, InvitationSent, false},
		{InvitationExpired, InvitationAccepted, false},
		{InvitationFailed, InvitationAccepted, false},
		// no backwards moves
		{InvitationSent, InvitationPending, false},
		// unknown statuses
		{"bogus", InvitationSent, false},
		{InvitationPending, "bogus", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestInvitationIsOpen(t *testing.T) {
	assert.True(t, (&Invitation{Status: InvitationPending}).IsOpen())
	assert.True(t, (&Invitation{Status: InvitationSent}).IsOpen())
	assert.False(t, (&Invitation{Status: InvitationAccepted}).IsOpen())
	assert.False(t, (&Invitation{Status: InvitationExpired}).IsOpen())
	assert.False(t, (&Invitation{Status: InvitationFailed}).IsOpen())
}

func TestInvitationIsExpired(t *testing.T) {
	now := time.Now()
	inv := &Invitation{ExpiresAt: now.Add(time.Hour)}

	assert.False(t, inv.IsExpired(now))
	assert.False(t, inv.IsExpired(now.Add(time.Hour)), "deadline itself is still valid")
	assert.True(t, inv.IsExpired(now.Add(time.Hour+time.Second)))
}

func TestInvitationVisibleTo(t *testing.T) {
	inv := &Invitation{InvitedBy: "member-1"}

	assert.True(t, inv.VisibleTo("admin-1", true), "the admin sees every invitation")
	assert.True(t, inv.VisibleTo("member-1", false), "senders see their own invitations")
	assert.False(t, inv.VisibleTo("member-2", false), "other members see nothing")
}

func TestValidMethod(t *testing.T) {
	assert.True(t, ValidMethod(MethodSMS))
	assert.True(t, ValidMethod(MethodWhatsApp))
	assert.True(t, ValidMethod(MethodLink))
	assert.False(t, ValidMethod("email"))
	assert.False(t, ValidMethod(""))
	assert.False(t, ValidMethod("SMS"))
}
