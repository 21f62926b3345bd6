package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidContribution(t *testing.T) {
	strict := &Group{MinContribution: 10000, ContributionMultiple: 5000}
	flexible := &Group{MinContribution: 10000, ContributionMultiple: 5000, AllowFlexibleContributions: true}

	tests := []struct {
		name   string
		group  *Group
		amount int64
		want   bool
	}{
		{"strict exact minimum", strict, 10000, true},
		{"strict valid multiple", strict, 25000, true},
		{"strict below minimum", strict, 5000, false},
		{"strict off multiple", strict, 12000, false},
		{"strict zero", strict, 0, false},
		{"strict negative", strict, -5000, false},
		{"flexible any positive", flexible, 1, true},
		{"flexible below minimum", flexible, 500, true},
		{"flexible zero", flexible, 0, false},
		{"flexible negative", flexible, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.group.IsValidContribution(tt.amount))
		})
	}
}

func TestGroupIsAdmin(t *testing.T) {
	g := &Group{AdminID: "admin-1"}

	assert.True(t, g.IsAdmin("admin-1"))
	assert.True(t, g.IsAdmin(" admin-1 "), "ids are compared after trimming")
	assert.False(t, g.IsAdmin("member-1"))
	assert.False(t, g.IsAdmin(""))

	empty := &Group{}
	assert.False(t, empty.IsAdmin(""), "a group without an admin matches no one")
}

func TestHasMember(t *testing.T) {
	members := []MemberWithUser{
		{User: UserResponse{ID: "u1"}, Role: RoleMember},
		{User: UserResponse{ID: "u2"}, Role: RoleAssistantAdmin},
	}

	assert.True(t, HasMember(members, "u1"))
	assert.True(t, HasMember(members, " u2 "))
	assert.False(t, HasMember(members, "u3"))
	assert.False(t, HasMember(members, ""))
	assert.False(t, HasMember(nil, "u1"))
}
