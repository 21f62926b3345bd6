package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("CONTRIBUTION_FLOOR", "")
	t.Setenv("INVITATION_TTL", "")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:3000", cfg.FrontendURL)
	assert.Equal(t, int64(10000), cfg.ContributionFloor)
	assert.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CONTRIBUTION_FLOOR", "5000")
	t.Setenv("INVITATION_TTL", "48h")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(5000), cfg.ContributionFloor)
	assert.Equal(t, 48*time.Hour, cfg.InvitationTTL)
}

func TestLoadIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("CONTRIBUTION_FLOOR", "lots")
	t.Setenv("INVITATION_TTL", "soon")

	cfg := Load()
	assert.Equal(t, int64(10000), cfg.ContributionFloor)
	assert.Equal(t, 7*24*time.Hour, cfg.InvitationTTL)
}
