package models

import "time"

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationSent     = "sent"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationFailed   = "failed"
)

// Delivery methods.
const (
	MethodSMS      = "sms"
	MethodWhatsApp = "whatsapp"
	MethodLink     = "link"
)

// Invitation is an outbound, time-bounded offer to join a group, delivered
// via SMS, WhatsApp, or a shareable link.
type Invitation struct {
	ID           string     `json:"id" db:"id"`
	GroupID      string     `json:"groupId" db:"group_id"`
	Code         string     `json:"code" db:"code"`
	InvitedPhone string     `json:"invitedPhone" db:"invited_phone"`
	InvitedName  string     `json:"invitedName" db:"invited_name"`
	InvitedBy    string     `json:"invitedBy" db:"invited_by"`
	Method       string     `json:"method" db:"method"`
	Status       string     `json:"status" db:"status"`
	MessageID    *string    `json:"messageId,omitempty" db:"message_id"`
	LastError    *string    `json:"lastError,omitempty" db:"last_error"`
	SentAt       *time.Time `json:"sentAt,omitempty" db:"sent_at"`
	AcceptedBy   *string    `json:"acceptedBy,omitempty" db:"accepted_by"`
	AcceptedAt   *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	ExpiresAt    time.Time  `json:"expiresAt" db:"expires_at"`
}

// ValidMethod reports whether m is a known delivery method.
func ValidMethod(m string) bool {
	return m == MethodSMS || m == MethodWhatsApp || m == MethodLink
}

// invitationTransitions holds the allowed status moves. Accepted, expired
// and failed are terminal.
var invitationTransitions = map[string][]string{
	InvitationPending: {InvitationSent, InvitationAccepted, InvitationExpired, InvitationFailed},
	InvitationSent:    {InvitationAccepted, InvitationExpired, InvitationFailed},
}

// CanTransition reports whether an invitation may move from one status to
// another.
func CanTransition(from, to string) bool {
	for _, next := range invitationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether the invitation can still be accepted (ignoring
// expiry, which is checked against the clock separately).
func (i *Invitation) IsOpen() bool {
	return i.Status == InvitationPending || i.Status == InvitationSent
}

// VisibleTo reports whether a viewer may see this invitation in a group
// listing. The group admin sees everything; other members see only the
// invitations they sent themselves.
func (i *Invitation) VisibleTo(viewerID string, isAdmin bool) bool {
	return isAdmin || i.InvitedBy == viewerID
}

// IsExpired reports whether the invitation's deadline has passed at the
// given instant.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
