package handlers

import (
	"context"
	"log/slog"
	"time"

	"trustsave/server/internal/database"
	"trustsave/server/internal/models"
	"trustsave/server/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ContributionRequest represents the contribution initiation body
type ContributionRequest struct {
	GroupID     string `json:"groupId"`
	Amount      int64  `json:"amount"`
	Provider    string `json:"provider"`
	PhoneNumber string `json:"phoneNumber"`
}

// InitiateContribution records a pending mobile-money contribution. No
// settlement happens here; an external process advances the status.
func InitiateContribution(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	var req ContributionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A positive amount is required",
		})
	}

	if !models.ValidProvider(req.Provider) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Mobile money provider must be mtn or airtel",
		})
	}

	phone := utils.NormalizePhone(req.PhoneNumber)
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "A valid phone number is required",
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
		slog.Error("InitiateContribution group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	isMember, err := isGroupMember(context.Background(), group.ID, userID)
	if err != nil {
		slog.Error("InitiateContribution membership check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You are not a member of this group",
		})
	}

	if !group.IsValidContribution(req.Amount) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Amount must meet the group's contribution rules",
		})
	}

	var contribution models.Contribution
	err = database.Pool.QueryRow(context.Background(), `
		INSERT INTO contributions (id, group_id, user_id, amount, provider,
			phone_number, transaction_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, group_id, user_id, amount, provider, phone_number,
			transaction_id, status, created_at, completed_at
	`, uuid.NewString(), group.ID, userID, req.Amount, req.Provider, phone,
		utils.GenerateTransactionID(), models.ContributionPending, time.Now()).
		Scan(&contribution.ID, &contribution.GroupID, &contribution.UserID,
			&contribution.Amount, &contribution.Provider, &contribution.PhoneNumber,
			&contribution.TransactionID, &contribution.Status,
			&contribution.CreatedAt, &contribution.CompletedAt)
	if err != nil {
		slog.Error("InitiateContribution insert failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Failed to record contribution",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Contribution initiated successfully",
		"data":    contribution,
	})
}

// GetGroupContributions lists a group's contributions, newest first
// (members only).
func GetGroupContributions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	groupID := c.Params("groupId")

	_, err := getGroup(context.Background(), groupID)
	if err == pgx.ErrNoRows {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Group not found",
		})
	}
	if err != nil {
		slog.Error("GetGroupContributions group query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	isMember, err := isGroupMember(context.Background(), groupID, userID)
	if err != nil {
		slog.Error("GetGroupContributions membership check failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	if !isMember {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"error":   "You are not a member of this group",
		})
	}

	rows, err := database.Pool.Query(context.Background(), `
		SELECT c.id, c.group_id, c.user_id, c.amount, c.provider, c.phone_number,
			c.transaction_id, c.status, c.created_at, c.completed_at, u.name
		FROM contributions c
		INNER JOIN users u ON u.id = c.user_id
		WHERE c.group_id = $1
		ORDER BY c.created_at DESC
	`, groupID)
	if err != nil {
		slog.Error("GetGroupContributions query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	contributions := []fiber.Map{}
	for rows.Next() {
		var con models.Contribution
		var userName string
		if err := rows.Scan(&con.ID, &con.GroupID, &con.UserID, &con.Amount,
			&con.Provider, &con.PhoneNumber, &con.TransactionID, &con.Status,
			&con.CreatedAt, &con.CompletedAt, &userName); err != nil {
			slog.Error("GetGroupContributions scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		contributions = append(contributions, fiber.Map{
			"contribution": con,
			"userName":     userName,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetGroupContributions rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(contributions),
		"data":    contributions,
	})
}

// GetUserContributions lists the caller's own contributions, newest first.
func GetUserContributions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := database.Pool.Query(context.Background(), `
		SELECT c.id, c.group_id, c.user_id, c.amount, c.provider, c.phone_number,
			c.transaction_id, c.status, c.created_at, c.completed_at, g.name
		FROM contributions c
		INNER JOIN groups g ON g.id = c.group_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		slog.Error("GetUserContributions query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	contributions := []fiber.Map{}
	for rows.Next() {
		var con models.Contribution
		var groupName string
		if err := rows.Scan(&con.ID, &con.GroupID, &con.UserID, &con.Amount,
			&con.Provider, &con.PhoneNumber, &con.TransactionID, &con.Status,
			&con.CreatedAt, &con.CompletedAt, &groupName); err != nil {
			slog.Error("GetUserContributions scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		contributions = append(contributions, fiber.Map{
			"contribution": con,
			"groupName":    groupName,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetUserContributions rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(contributions),
		"data":    contributions,
	})
}
