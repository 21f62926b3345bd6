package handlers

import (
	"context"
	"log/slog"
	"time"

	"trustsave/server/internal/database"
	"trustsave/server/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// RejectRequest represents the reject request body
type RejectRequest struct {
	Notes string `json:"notes,omitempty"`
}

// GetJoinRequests returns pending join requests for a group (admin only),
// newest first, enriched with requester contact info and the originating
// invitation method.
func GetJoinRequests(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("groupId")

	group, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("GetJoinRequests group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can view join requests",
		})
	}

	rows, err := database.Pool.Query(context.Background(), `
		SELECT jr.id, jr.group_id, jr.requested_at,
			u.id, u.phone, u.email, u.name, u.role, u.created_at,
			i.method
		FROM join_requests jr
		INNER JOIN users u ON u.id = jr.user_id
		LEFT JOIN invitations i ON i.id = jr.invitation_id
		WHERE jr.group_id = $1 AND jr.status = $2
		ORDER BY jr.requested_at DESC
	`, groupID, models.JoinRequestPending)
	if err != nil {
		slog.Error("GetJoinRequests query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	requests := []models.PendingJoinRequest{}
	for rows.Next() {
		var r models.PendingJoinRequest
		var u models.User
		if err := rows.Scan(&r.ID, &r.GroupID, &r.RequestedAt,
			&u.ID, &u.Phone, &u.Email, &u.Name, &u.Role, &u.CreatedAt,
			&r.InvitationMethod); err != nil {
			slog.Error("GetJoinRequests scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		r.Requester = u.ToResponse()
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetJoinRequests rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(requests),
		"data":    requests,
	})
}

// loadRequestForModeration fetches a join request plus its group and checks
// the caller is the group admin. Writes the error response itself and
// returns nil when the caller should stop.
func loadRequestForModeration(c *fiber.Ctx, requestID, adminID string) (*models.JoinRequest, *models.Group) {
	var jr models.JoinRequest
	err := database.Pool.QueryRow(context.Background(), `
		SELECT id, group_id, user_id, invitation_id, status, admin_notes,
			requested_at, processed_at, processed_by
		FROM join_requests WHERE id = $1
	`, requestID).Scan(&jr.ID, &jr.GroupID, &jr.UserID, &jr.InvitationID, &jr.Status,
		&jr.AdminNotes, &jr.RequestedAt, &jr.ProcessedAt, &jr.ProcessedBy)
	if err == pgx.ErrNoRows {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Join request not found",
		})
		return nil, nil
	}
	if err != nil {
		slog.Error("Join request query failed", "error", err)
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
		return nil, nil
	}

	group, err := getGroup(context.Background(), jr.GroupID)
	if err != nil {
		slog.Error("Join request group query failed", "error", err)
		c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
		return nil, nil
	}

	if !group.IsAdmin(adminID) {
		c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can process join requests",
		})
		return nil, nil
	}

	if jr.Status != models.JoinRequestPending {
		c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "This request has already been processed",
		})
		return nil, nil
	}

	return &jr, group
}

// ApproveJoinRequest adds the requester to the group and marks the request
// approved. The two writes are individually idempotent so a replay after a
// partial failure converges instead of duplicating membership.
func ApproveJoinRequest(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(string)
	requestID := c.Params("id")

	jr, group := loadRequestForModeration(c, requestID, adminID)
	if jr == nil {
		return nil
	}

	isMember, err := isGroupMember(context.Background(), group.ID, jr.UserID)
	if err != nil {
		slog.Error("ApproveJoinRequest membership check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	note := ""
	if isMember {
		// Lost a race with another admission path; approve without
		// touching the roster.
		note = "User was already a member"
	} else {
		_, err = database.Pool.Exec(context.Background(), `
			INSERT INTO group_members (group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_id, user_id) DO NOTHING
		`, group.ID, jr.UserID, models.RoleMember, time.Now())
		if err != nil {
			slog.Error("ApproveJoinRequest member insert failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Failed to add member",
			})
		}
	}

	var notes *string
	if note != "" {
		notes = &note
	}
	tag, err := database.Pool.Exec(context.Background(), `
		UPDATE join_requests
		SET status = $1, processed_at = $2, processed_by = $3, admin_notes = COALESCE($4, admin_notes)
		WHERE id = $5 AND status = $6
	`, models.JoinRequestApproved, time.Now(), adminID, notes, jr.ID, models.JoinRequestPending)
	if err != nil {
		slog.Error("ApproveJoinRequest update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if tag.RowsAffected() == 0 {
		// Processed concurrently between our read and this write.
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "This request has already been processed",
		})
	}

	message := "User successfully added to the group"
	if isMember {
		message = "User is already a member of this group"
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": message,
		"data": fiber.Map{
			"requestId": jr.ID,
			"groupId":   group.ID,
			"userId":    jr.UserID,
			"status":    models.JoinRequestApproved,
		},
	})
}

// RejectJoinRequest marks a request rejected with optional admin notes. No
// membership mutation happens.
func RejectJoinRequest(c *fiber.Ctx) error {
	adminID := c.Locals("userID").(string)
	requestID := c.Params("id")

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	jr, group := loadRequestForModeration(c, requestID, adminID)
	if jr == nil {
		return nil
	}

	notes := req.Notes
	if notes == "" {
		notes = "Request rejected by admin"
	}

	tag, err := database.Pool.Exec(context.Background(), `
		UPDATE join_requests
		SET status = $1, processed_at = $2, processed_by = $3, admin_notes = $4
		WHERE id = $5 AND status = $6
	`, models.JoinRequestRejected, time.Now(), adminID, notes, jr.ID, models.JoinRequestPending)
	if err != nil {
		slog.Error("RejectJoinRequest update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "This request has already been processed",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Join request rejected",
		"data": fiber.Map{
			"requestId": jr.ID,
			"groupId":   group.ID,
			"status":    models.JoinRequestRejected,
		},
	})
}
