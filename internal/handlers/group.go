package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"trustsave/server/internal/database"
	"trustsave/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateGroupRequest represents create group request body
type CreateGroupRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description,omitempty"`
	Purpose              string `json:"purpose,omitempty"`
	MeetingSchedule      string `json:"meetingSchedule,omitempty"`
	MinContribution      *int64 `json:"minContribution,omitempty"`
	ContributionMultiple *int64 `json:"contributionMultiple,omitempty"`
	Currency             string `json:"currency,omitempty"`
}

// UpdateGroupRequest represents update group request body. Pointer fields
// distinguish "not provided" from zero values.
type UpdateGroupRequest struct {
	Name                       *string `json:"name,omitempty"`
	Description                *string `json:"description,omitempty"`
	Purpose                    *string `json:"purpose,omitempty"`
	MeetingSchedule            *string `json:"meetingSchedule,omitempty"`
	MinContribution            *int64  `json:"minContribution,omitempty"`
	ContributionMultiple       *int64  `json:"contributionMultiple,omitempty"`
	IsActive                   *bool   `json:"isActive,omitempty"`
	AllowFlexibleContributions *bool   `json:"allowFlexibleContributions,omitempty"`
	AutoApproveMembers         *bool   `json:"autoApproveMembers,omitempty"`
}

// MemberRequest carries a user reference for add/remove member calls. The
// reference may be a bare id or an expanded user object.
type MemberRequest struct {
	UserID models.UserRef `json:"userId"`
}

// validateGroupFields enforces the field length limits, counting characters
// rather than bytes. Returns "" when valid.
func validateGroupFields(name, description, purpose string) string {
	switch {
	case utf8.RuneCountInString(name) > 100:
		return "Group name must be 100 characters or less"
	case utf8.RuneCountInString(description) > 500:
		return "Description must be 500 characters or less"
	case utf8.RuneCountInString(purpose) > 200:
		return "Purpose must be 200 characters or less"
	}
	return ""
}

const groupColumns = `id, name, description, purpose, admin_id, min_contribution,
	contribution_multiple, currency, meeting_schedule, total_balance, is_active,
	allow_flexible_contributions, auto_approve_members, created_at, updated_at`

func scanGroup(row pgx.Row) (*models.Group, error) {
	var g models.Group
	err := row.Scan(&g.ID, &g.Name, &g.Description, &g.Purpose, &g.AdminID,
		&g.MinContribution, &g.ContributionMultiple, &g.Currency, &g.MeetingSchedule,
		&g.TotalBalance, &g.IsActive, &g.AllowFlexibleContributions,
		&g.AutoApproveMembers, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// getGroup loads a group by id. Returns pgx.ErrNoRows when absent.
func getGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return scanGroup(database.Pool.QueryRow(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = $1`, groupID))
}

// isGroupMember is the canonical membership predicate. Every authorization
// check against the roster goes through here.
func isGroupMember(ctx context.Context, groupID, userID string) (bool, error) {
	var isMember bool
	err := database.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)
	`, groupID, userID).Scan(&isMember)
	return isMember, err
}

// getGroupMembers returns the roster with user details, oldest first.
func getGroupMembers(ctx context.Context, groupID string) ([]models.MemberWithUser, error) {
	rows, err := database.Pool.Query(ctx, `
		SELECT u.id, u.phone, u.email, u.name, u.role, u.created_at,
			gm.role, gm.joined_at
		FROM users u
		INNER JOIN group_members gm ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.MemberWithUser{}
	for rows.Next() {
		var u models.User
		var m models.MemberWithUser
		if err := rows.Scan(&u.ID, &u.Phone, &u.Email, &u.Name, &u.Role, &u.CreatedAt,
			&m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.User = u.ToResponse()
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateGroup creates a new savings group with the caller as admin
func CreateGroup(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Group name is required",
		})
	}
	if msg := validateGroupFields(req.Name, req.Description, req.Purpose); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   msg,
		})
	}

	minContribution := cfg.ContributionFloor
	if req.MinContribution != nil {
		minContribution = *req.MinContribution
	}
	contributionMultiple := cfg.ContributionFloor
	if req.ContributionMultiple != nil {
		contributionMultiple = *req.ContributionMultiple
	}
	if minContribution < cfg.ContributionFloor || contributionMultiple < cfg.ContributionFloor {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Contribution rules must be at least " + strconv.FormatInt(cfg.ContributionFloor, 10),
		})
	}

	currency := req.Currency
	if currency == "" {
		currency = "UGX"
	}

	tx, err := database.Pool.Begin(context.Background())
	if err != nil {
		slog.Error("CreateGroup begin failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer tx.Rollback(context.Background())

	group, err := scanGroup(tx.QueryRow(context.Background(), `
		INSERT INTO groups (id, name, description, purpose, admin_id,
			min_contribution, contribution_multiple, currency, meeting_schedule,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING `+groupColumns,
		uuid.NewString(), req.Name, req.Description, req.Purpose, userID,
		minContribution, contributionMultiple, currency, req.MeetingSchedule, time.Now()))
	if err != nil {
		slog.Error("CreateGroup insert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create group",
		})
	}

	// The admin is always the first roster entry.
	_, err = tx.Exec(context.Background(), `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
	`, group.ID, userID, models.RoleMember, time.Now())
	if err != nil {
		slog.Error("CreateGroup admin member insert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create group",
		})
	}

	if err := tx.Commit(context.Background()); err != nil {
		slog.Error("CreateGroup commit failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to create group",
		})
	}

	members, _ := getGroupMembers(context.Background(), group.ID)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": models.GroupWithMembers{
			Group:   *group,
			Members: members,
		},
	})
}

// GetGroups returns all groups the caller belongs to, newest first
func GetGroups(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := database.Pool.Query(context.Background(), `
		SELECT `+groupColumns+`,
			(SELECT COUNT(*) FROM group_members WHERE group_id = groups.id) AS member_count
		FROM groups
		WHERE admin_id = $1
			OR EXISTS(SELECT 1 FROM group_members WHERE group_id = groups.id AND user_id = $1)
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		slog.Error("GetGroups query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	groups := []fiber.Map{}
	for rows.Next() {
		var g models.Group
		var memberCount int
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Purpose, &g.AdminID,
			&g.MinContribution, &g.ContributionMultiple, &g.Currency, &g.MeetingSchedule,
			&g.TotalBalance, &g.IsActive, &g.AllowFlexibleContributions,
			&g.AutoApproveMembers, &g.CreatedAt, &g.UpdatedAt, &memberCount); err != nil {
			slog.Error("GetGroups scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		groups = append(groups, fiber.Map{
			"group":       g,
			"memberCount": memberCount,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetGroups rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(groups),
		"data":    groups,
	})
}

// GetGroupDetails returns a single group with its roster (members only)
func GetGroupDetails(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("GetGroupDetails query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	members, err := getGroupMembers(context.Background(), groupID)
	if err != nil {
		slog.Error("GetGroupDetails members query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to get group members",
		})
	}

	if !group.IsAdmin(userID) && !models.HasMember(members, userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Not authorized to access this group",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": models.GroupWithMembers{
			Group:   *group,
			Members: members,
		},
	})
}

// UpdateGroup merges a patch into the group (admin only)
func UpdateGroup(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")

	var req UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("UpdateGroup query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can update this group",
		})
	}

	if req.Name != nil && *req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Group name is required",
		})
	}
	var name, description, purpose string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if req.Purpose != nil {
		purpose = *req.Purpose
	}
	if msg := validateGroupFields(name, description, purpose); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   msg,
		})
	}

	if req.MinContribution != nil && *req.MinContribution < cfg.ContributionFloor ||
		req.ContributionMultiple != nil && *req.ContributionMultiple < cfg.ContributionFloor {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Contribution rules must be at least " + strconv.FormatInt(cfg.ContributionFloor, 10),
		})
	}

	query := "UPDATE groups SET updated_at = $1"
	args := []interface{}{time.Now()}
	addSet := func(column string, value interface{}) {
		args = append(args, value)
		query += ", " + column + " = $" + strconv.Itoa(len(args))
	}
	if req.Name != nil {
		addSet("name", *req.Name)
	}
	if req.Description != nil {
		addSet("description", *req.Description)
	}
	if req.Purpose != nil {
		addSet("purpose", *req.Purpose)
	}
	if req.MeetingSchedule != nil {
		addSet("meeting_schedule", *req.MeetingSchedule)
	}
	if req.MinContribution != nil {
		addSet("min_contribution", *req.MinContribution)
	}
	if req.ContributionMultiple != nil {
		addSet("contribution_multiple", *req.ContributionMultiple)
	}
	if req.IsActive != nil {
		addSet("is_active", *req.IsActive)
	}
	if req.AllowFlexibleContributions != nil {
		addSet("allow_flexible_contributions", *req.AllowFlexibleContributions)
	}
	if req.AutoApproveMembers != nil {
		addSet("auto_approve_members", *req.AutoApproveMembers)
	}

	args = append(args, groupID)
	query += " WHERE id = $" + strconv.Itoa(len(args)) + " RETURNING " + groupColumns

	updated, err := scanGroup(database.Pool.QueryRow(context.Background(), query, args...))
	if err != nil {
		slog.Error("UpdateGroup update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to update group",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    updated,
	})
}

// DeleteGroup deletes a group (admin only)
func DeleteGroup(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("DeleteGroup query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can delete this group",
		})
	}

	_, err = database.Pool.Exec(context.Background(), "DELETE FROM groups WHERE id = $1", groupID)
	if err != nil {
		slog.Error("DeleteGroup delete failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to delete group",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Group deleted successfully",
	})
}

// AddMember adds a user to the group roster (admin only)
func AddMember(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A user id is required",
		})
	}

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("AddMember query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can add members",
		})
	}

	tag, err := database.Pool.Exec(context.Background(), `
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (group_id, user_id) DO NOTHING
	`, groupID, req.UserID.ID(), models.RoleMember, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"error":   "User not found",
			})
		}
		slog.Error("AddMember insert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to add member",
		})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "User is already a member of this group",
		})
	}

	members, err := getGroupMembers(context.Background(), groupID)
	if err != nil {
		slog.Error("AddMember members query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": models.GroupWithMembers{
			Group:   *group,
			Members: members,
		},
	})
}

// RemoveMember removes a user from the group roster (admin only). The admin
// can never be removed.
func RemoveMember(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("id")

	var req MemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID.IsZero() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A user id is required",
		})
	}

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("RemoveMember query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can remove members",
		})
	}

	if group.IsAdmin(req.UserID.ID()) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Cannot remove group admin",
		})
	}

	tag, err := database.Pool.Exec(context.Background(), `
		DELETE FROM group_members WHERE group_id = $1 AND user_id = $2
	`, groupID, req.UserID.ID())
	if err != nil {
		slog.Error("RemoveMember delete failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to remove member",
		})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Member not found in group",
		})
	}

	members, err := getGroupMembers(context.Background(), groupID)
	if err != nil {
		slog.Error("RemoveMember members query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": models.GroupWithMembers{
			Group:   *group,
			Members: members,
		},
	})
}
