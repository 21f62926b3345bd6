package models

import "time"

// Join request statuses. Approved and rejected are terminal.
const (
	JoinRequestPending  = "pending"
	JoinRequestApproved = "approved"
	JoinRequestRejected = "rejected"
)

// JoinRequest is a moderation queue entry created when an invitee accepts an
// invitation but is not auto-admitted to the group.
type JoinRequest struct {
	ID           string     `json:"id" db:"id"`
	GroupID      string     `json:"groupId" db:"group_id"`
	UserID       string     `json:"userId" db:"user_id"`
	InvitationID *string    `json:"invitationId,omitempty" db:"invitation_id"`
	Status       string     `json:"status" db:"status"`
	AdminNotes   *string    `json:"adminNotes,omitempty" db:"admin_notes"`
	RequestedAt  time.Time  `json:"requestedAt" db:"requested_at"`
	ProcessedAt  *time.Time `json:"processedAt,omitempty" db:"processed_at"`
	ProcessedBy  *string    `json:"processedBy,omitempty" db:"processed_by"`
}

// PendingJoinRequest is a queue entry enriched with requester contact info
// and the originating invitation method for the admin view.
type PendingJoinRequest struct {
	ID               string       `json:"id"`
	GroupID          string       `json:"groupId"`
	Requester        UserResponse `json:"requester"`
	InvitationMethod *string      `json:"invitationMethod,omitempty"`
	RequestedAt      time.Time    `json:"requestedAt"`
}
