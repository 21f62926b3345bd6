package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trustsave/server/internal/database"
	"trustsave/server/internal/models"
	"trustsave/server/internal/notifier"
	"trustsave/server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Invitee is one entry in a batch invite request.
type Invitee struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// SendInvitationsRequest represents the batch invite request body
type SendInvitationsRequest struct {
	GroupID  string    `json:"groupId"`
	Invitees []Invitee `json:"invitees"`
	Method   string    `json:"method,omitempty"`
}

// InviteeResult is the per-invitee outcome of a batch send. One invitee's
// failure never affects another's.
type InviteeResult struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	InvitationID string `json:"invitationId,omitempty"`
	Code         string `json:"code,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

const invitationColumns = `id, group_id, code, invited_phone, invited_name, invited_by,
	method, status, message_id, last_error, sent_at, accepted_by, accepted_at,
	created_at, expires_at`

func scanInvitation(row pgx.Row) (*models.Invitation, error) {
	var inv models.Invitation
	err := row.Scan(&inv.ID, &inv.GroupID, &inv.Code, &inv.InvitedPhone, &inv.InvitedName,
		&inv.InvitedBy, &inv.Method, &inv.Status, &inv.MessageID, &inv.LastError,
		&inv.SentAt, &inv.AcceptedBy, &inv.AcceptedAt, &inv.CreatedAt, &inv.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// getInvitation resolves an invitation by id or by its short public code.
// SMS links carry the code; API clients usually have the id.
func getInvitation(ctx context.Context, ref string) (*models.Invitation, error) {
	return scanInvitation(database.Pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id::text = $1 OR code = $1`, ref))
}

// expireIfDue lazily marks an open invitation expired once its deadline has
// passed. Returns the current status.
func expireIfDue(ctx context.Context, inv *models.Invitation) (string, error) {
	if !models.CanTransition(inv.Status, models.InvitationExpired) || !inv.IsExpired(time.Now()) {
		return inv.Status, nil
	}
	tag, err := database.Pool.Exec(ctx, `
		UPDATE invitations SET status = $1 WHERE id = $2 AND status IN ($3, $4)
	`, models.InvitationExpired, inv.ID, models.InvitationPending, models.InvitationSent)
	if err != nil {
		return "", err
	}
	if tag.RowsAffected() == 0 {
		// A concurrent transition won; reload instead of guessing.
		fresh, err := getInvitation(ctx, inv.ID)
		if err != nil {
			return "", err
		}
		*inv = *fresh
		return inv.Status, nil
	}
	inv.Status = models.InvitationExpired
	return inv.Status, nil
}

// memberPhoneExists reports whether phone already belongs to a member of the
// group, comparing normalized phone numbers.
func memberPhoneExists(ctx context.Context, groupID, phone string) (bool, error) {
	var exists bool
	err := database.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM group_members gm
			INNER JOIN users u ON u.id = gm.user_id
			WHERE gm.group_id = $1 AND u.phone = $2
		)
	`, groupID, phone).Scan(&exists)
	return exists, err
}

// SendInvitations batch-creates invitations and dispatches them (admin only).
// Invitees are processed independently; partial failure is reported per item,
// never as a request failure.
func SendInvitations(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req SendInvitationsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if len(req.Invitees) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Please provide at least one invitee",
		})
	}

	method := req.Method
	if method == "" {
		method = models.MethodSMS
	}
	if !models.ValidMethod(method) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Delivery method must be sms, whatsapp, or link",
		})
	}

	group, err := getGroup(context.Background(), req.GroupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("SendInvitations group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can invite members",
		})
	}

	var inviterName string
	if err := database.Pool.QueryRow(context.Background(),
		"SELECT name FROM users WHERE id = $1", userID).Scan(&inviterName); err != nil {
		slog.Error("SendInvitations inviter query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	results := make([]InviteeResult, 0, len(req.Invitees))
	sent, failed := 0, 0

	for _, invitee := range req.Invitees {
		result := processInvitee(context.Background(), group, userID, inviterName, invitee, method)
		if result.Status == models.InvitationSent {
			sent++
		} else {
			failed++
		}
		results = append(results, result)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"sent":    sent,
			"failed":  failed,
			"results": results,
		},
	})
}

// processInvitee handles one invitee of a batch: validation, record
// creation, and delivery. Errors are captured in the result.
func processInvitee(ctx context.Context, group *models.Group, inviterID, inviterName string, invitee Invitee, method string) InviteeResult {
	result := InviteeResult{Name: invitee.Name, Phone: invitee.Phone}

	if invitee.Name == "" || invitee.Phone == "" {
		result.Status = models.InvitationFailed
		result.Error = "Missing name or phone"
		return result
	}

	phone := utils.NormalizePhone(invitee.Phone)
	if phone == "" {
		result.Status = models.InvitationFailed
		result.Error = "Invalid phone number"
		return result
	}

	alreadyMember, err := memberPhoneExists(ctx, group.ID, phone)
	if err != nil {
		slog.Error("Invitee membership check failed", "phone", phone, "error", err)
		result.Status = models.InvitationFailed
		result.Error = "Database error"
		return result
	}
	if alreadyMember {
		result.Status = models.InvitationFailed
		result.Error = invitee.Name + " is already a member"
		return result
	}

	code, err := utils.UniqueInviteCode(func(candidate string) (bool, error) {
		var taken bool
		err := database.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM invitations WHERE code = $1)", candidate).Scan(&taken)
		return taken, err
	})
	if err != nil {
		slog.Error("Invite code generation failed", "phone", phone, "error", err)
		result.Status = models.InvitationFailed
		if errors.Is(err, utils.ErrCodeSpaceExhausted) {
			result.Error = "Could not allocate an invitation code"
		} else {
			result.Error = "Database error"
		}
		return result
	}

	now := time.Now()
	invitationID := uuid.NewString()
	_, err = database.Pool.Exec(ctx, `
		INSERT INTO invitations (id, group_id, code, invited_phone, invited_name,
			invited_by, method, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, invitationID, group.ID, code, phone, invitee.Name, inviterID, method,
		models.InvitationPending, now, now.Add(cfg.InvitationTTL))
	if err != nil {
		slog.Error("Invitation insert failed", "phone", phone, "error", err)
		result.Status = models.InvitationFailed
		result.Error = "Failed to create invitation"
		return result
	}

	result.InvitationID = invitationID
	result.Code = code

	message := notifier.InviteMessage(invitee.Name, inviterName, group.Name,
		cfg.FrontendURL+"/invite/"+code)

	messageID, sendErr := notifier.ForMethod(method).Send(ctx, phone, message)
	if sendErr != nil {
		errText := sendErr.Error()
		_, err = database.Pool.Exec(ctx, `
			UPDATE invitations SET status = $1, last_error = $2 WHERE id = $3
		`, models.InvitationFailed, errText, invitationID)
		if err != nil {
			slog.Error("Invitation failure update failed", "invitation_id", invitationID, "error", err)
		}
		result.Status = models.InvitationFailed
		result.Error = "Failed to send " + method
		return result
	}

	_, err = database.Pool.Exec(ctx, `
		UPDATE invitations SET status = $1, message_id = $2, sent_at = $3 WHERE id = $4
	`, models.InvitationSent, messageID, time.Now(), invitationID)
	if err != nil {
		slog.Error("Invitation sent update failed", "invitation_id", invitationID, "error", err)
		result.Status = models.InvitationFailed
		result.Error = "Database error"
		return result
	}

	result.Status = models.InvitationSent
	return result
}

// GetGroupInvitations lists a group's open invitations, newest first. The
// group admin sees every invitation; other members see only the ones they
// sent themselves.
func GetGroupInvitations(c *fiber.Ctx) error {
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
		slog.Error("GetGroupInvitations group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	isMember, err := isGroupMember(context.Background(), groupID, userID)
	if err != nil {
		slog.Error("GetGroupInvitations membership check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !group.IsAdmin(userID) && !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You are not a member of this group",
		})
	}

	rows, err := database.Pool.Query(context.Background(), `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE group_id = $1 AND status IN ($2, $3) AND expires_at > now()
		ORDER BY created_at DESC
	`, groupID, models.InvitationPending, models.InvitationSent)
	if err != nil {
		slog.Error("GetGroupInvitations query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	isAdmin := group.IsAdmin(userID)
	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			slog.Error("GetGroupInvitations scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		if !inv.VisibleTo(userID, isAdmin) {
			continue
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetGroupInvitations rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(invitations),
		"data":    invitations,
	})
}

// GetInvitation returns invitation details for the public accept page. Only
// the target group's name, purpose, and the inviter's contact are exposed.
func GetInvitation(c *fiber.Ctx) error {
	ref := c.Params("id")

	inv, err := getInvitation(context.Background(), ref)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Invitation not found",
		})
	}
	if err != nil {
		slog.Error("GetInvitation query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	status, err := expireIfDue(context.Background(), inv)
	if err != nil {
		slog.Error("GetInvitation expiry update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if status == models.InvitationExpired || status == models.InvitationFailed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "This invitation has expired or is no longer valid",
		})
	}

	var groupName, groupDescription, groupPurpose, inviterName, inviterPhone string
	err = database.Pool.QueryRow(context.Background(), `
		SELECT g.name, g.description, g.purpose, u.name, u.phone
		FROM invitations i
		INNER JOIN groups g ON g.id = i.group_id
		INNER JOIN users u ON u.id = i.invited_by
		WHERE i.id = $1
	`, inv.ID).Scan(&groupName, &groupDescription, &groupPurpose, &inviterName, &inviterPhone)
	if err != nil {
		slog.Error("GetInvitation detail query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	data := fiber.Map{
		"id":          inv.ID,
		"code":        inv.Code,
		"invitedName": inv.InvitedName,
		"method":      inv.Method,
		"status":      inv.Status,
		"expiresAt":   inv.ExpiresAt,
		"group": fiber.Map{
			"id":          inv.GroupID,
			"name":        groupName,
			"description": groupDescription,
			"purpose":     groupPurpose,
		},
		"invitedBy": fiber.Map{
			"name":  inviterName,
			"phone": inviterPhone,
		},
	}

	if status == models.InvitationAccepted {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "This invitation has already been accepted",
			"data":    data,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// AcceptInvitation converts an invitation into membership or a join request.
// Repeat calls by an existing member are idempotent.
func AcceptInvitation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	ref := c.Params("id")

	inv, err := getInvitation(context.Background(), ref)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Invitation not found",
		})
	}
	if err != nil {
		slog.Error("AcceptInvitation query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	isMember, err := isGroupMember(context.Background(), inv.GroupID, userID)
	if err != nil {
		slog.Error("AcceptInvitation membership check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	// Re-accepting an already-accepted invitation stays idempotent for a
	// user who is already in the group.
	if inv.Status == models.InvitationAccepted && isMember {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "You are already a member of this group",
			"data":    fiber.Map{"groupId": inv.GroupID, "status": "already_member"},
		})
	}

	if _, err := expireIfDue(context.Background(), inv); err != nil {
		slog.Error("AcceptInvitation expiry update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !inv.IsOpen() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "This invitation has expired or is no longer valid",
		})
	}

	// Forwarded links are fine; just leave a trace when the accepter's phone
	// is not the one invited.
	if phone, _ := c.Locals("phone").(string); !utils.SamePhone(phone, inv.InvitedPhone) {
		slog.Info("Invitation accepted from a different phone",
			"invitation_id", inv.ID, "invited_phone", inv.InvitedPhone)
	}

	if isMember {
		if err := markInvitationAccepted(context.Background(), inv, userID); err != nil {
			slog.Error("AcceptInvitation accept update failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "You are already a member of this group",
			"data":    fiber.Map{"groupId": inv.GroupID, "status": "already_member"},
		})
	}

	// A pending request from an earlier invitation wins; never duplicate it.
	var existingRequestID string
	err = database.Pool.QueryRow(context.Background(), `
		SELECT id FROM join_requests
		WHERE group_id = $1 AND user_id = $2 AND status = $3
	`, inv.GroupID, userID, models.JoinRequestPending).Scan(&existingRequestID)
	if err != nil && err != pgx.ErrNoRows {
		slog.Error("AcceptInvitation request lookup failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if err == nil {
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Your join request is already pending approval",
			"data": fiber.Map{
				"groupId":   inv.GroupID,
				"status":    "pending_approval",
				"requestId": existingRequestID,
			},
		})
	}

	group, err := getGroup(context.Background(), inv.GroupID)
	if err != nil {
		slog.Error("AcceptInvitation group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if group.AutoApproveMembers {
		_, err = database.Pool.Exec(context.Background(), `
			INSERT INTO group_members (group_id, user_id, role, joined_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (group_id, user_id) DO NOTHING
		`, group.ID, userID, models.RoleMember, time.Now())
		if err != nil {
			slog.Error("AcceptInvitation auto-approve insert failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		if err := markInvitationAccepted(context.Background(), inv, userID); err != nil {
			slog.Error("AcceptInvitation accept update failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Welcome to " + group.Name,
			"data": fiber.Map{
				"groupId":   group.ID,
				"groupName": group.Name,
				"status":    "joined",
			},
		})
	}

	requestID := uuid.NewString()
	_, err = database.Pool.Exec(context.Background(), `
		INSERT INTO join_requests (id, group_id, user_id, invitation_id, status, requested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, requestID, group.ID, userID, inv.ID, models.JoinRequestPending, time.Now())
	if err != nil {
		// A concurrent accept already queued this user; treat as pending.
		if isUniqueViolation(err, "idx_join_requests_pending") {
			return c.JSON(fiber.Map{
				"success": true,
				"message": "Your join request is already pending approval",
				"data":    fiber.Map{"groupId": group.ID, "status": "pending_approval"},
			})
		}
		slog.Error("AcceptInvitation request insert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if err := markInvitationAccepted(context.Background(), inv, userID); err != nil {
		slog.Error("AcceptInvitation accept update failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Join request submitted successfully. Waiting for admin approval.",
		"data": fiber.Map{
			"groupId":   group.ID,
			"groupName": group.Name,
			"status":    "pending_approval",
			"requestId": requestID,
		},
	})
}

// markInvitationAccepted flips an open invitation to accepted. The status
// guard keeps the transition monotonic even on replay.
func markInvitationAccepted(ctx context.Context, inv *models.Invitation, userID string) error {
	if !models.CanTransition(inv.Status, models.InvitationAccepted) {
		return fmt.Errorf("invitation %s cannot move from %s to accepted", inv.ID, inv.Status)
	}
	_, err := database.Pool.Exec(ctx, `
		UPDATE invitations
		SET status = $1, accepted_by = $2, accepted_at = $3
		WHERE id = $4 AND status IN ($5, $6)
	`, models.InvitationAccepted, userID, time.Now(), inv.ID,
		models.InvitationPending, models.InvitationSent)
	if err == nil {
		inv.Status = models.InvitationAccepted
	}
	return err
}

// CancelInvitation deletes an invitation (group admin only). Accepted
// invitations cannot be cancelled; that would orphan the join request they
// produced.
func CancelInvitation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	ref := c.Params("id")

	inv, err := getInvitation(context.Background(), ref)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Invitation not found",
		})
	}
	if err != nil {
		slog.Error("CancelInvitation query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	group, err := getGroup(context.Background(), inv.GroupID)
	if err != nil {
		slog.Error("CancelInvitation group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	if !group.IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "Only the group admin can cancel invitations",
		})
	}

	if inv.Status == models.InvitationAccepted {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Accepted invitations cannot be cancelled",
		})
	}

	_, err = database.Pool.Exec(context.Background(),
		"DELETE FROM invitations WHERE id = $1", inv.ID)
	if err != nil {
		slog.Error("CancelInvitation delete failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to cancel invitation",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Invitation cancelled",
	})
}
