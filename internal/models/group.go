package models

import (
	"strings"
	"time"
)

// Member roles within a group.
const (
	RoleMember         = "member"
	RoleAssistantAdmin = "assistant_admin"
)

// Group represents a savings circle with one admin and a member roster.
type Group struct {
	ID                         string    `json:"id" db:"id"`
	Name                       string    `json:"name" db:"name"`
	Description                string    `json:"description" db:"description"`
	Purpose                    string    `json:"purpose" db:"purpose"`
	AdminID                    string    `json:"adminId" db:"admin_id"`
	MinContribution            int64     `json:"minContribution" db:"min_contribution"`
	ContributionMultiple       int64     `json:"contributionMultiple" db:"contribution_multiple"`
	Currency                   string    `json:"currency" db:"currency"`
	MeetingSchedule            string    `json:"meetingSchedule" db:"meeting_schedule"`
	TotalBalance               int64     `json:"totalBalance" db:"total_balance"`
	IsActive                   bool      `json:"isActive" db:"is_active"`
	AllowFlexibleContributions bool      `json:"allowFlexibleContributions" db:"allow_flexible_contributions"`
	AutoApproveMembers         bool      `json:"autoApproveMembers" db:"auto_approve_members"`
	CreatedAt                  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt                  time.Time `json:"updatedAt" db:"updated_at"`
}

// MemberWithUser pairs a roster entry with the member's user record.
type MemberWithUser struct {
	User     UserResponse `json:"user"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joinedAt"`
}

// GroupWithMembers includes the full roster.
type GroupWithMembers struct {
	Group
	Members []MemberWithUser `json:"members"`
}

// IsAdmin reports whether userID is the group's admin, comparing canonical
// ids.
func (g *Group) IsAdmin(userID string) bool {
	return g.AdminID != "" && g.AdminID == strings.TrimSpace(userID)
}

// IsValidContribution checks an amount against the group's contribution
// rules. When flexible contributions are allowed any positive amount is
// accepted; otherwise the amount must meet the minimum and be an exact
// multiple of the contribution multiple.
func (g *Group) IsValidContribution(amount int64) bool {
	if amount <= 0 {
		return false
	}
	if g.AllowFlexibleContributions {
		return true
	}
	return amount >= g.MinContribution && amount%g.ContributionMultiple == 0
}

// HasMember reports whether userID appears in a loaded roster, comparing
// canonical ids.
func HasMember(members []MemberWithUser, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	for _, m := range members {
		if m.User.ID == userID {
			return true
		}
	}
	return false
}
