package handlers

import (
	"context"
	"log/slog"

	"trustsave/server/internal/database"
	"trustsave/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetDashboard aggregates the caller's groups and contribution activity.
// Everything here is computed from stored data; no synthetic figures.
func GetDashboard(c *fiber.Ctx) error {
	userID := c.Locals("userID").(string)

	rows, err := database.Pool.Query(context.Background(), `
		SELECT g.id, g.name, g.description, g.meeting_schedule, g.total_balance,
			g.is_active, g.currency,
			(SELECT COUNT(*) FROM group_members WHERE group_id = g.id) AS member_count,
			COALESCE((SELECT SUM(amount) FROM contributions
				WHERE group_id = g.id AND user_id = $1 AND status <> $2), 0) AS my_contribution
		FROM groups g
		WHERE g.admin_id = $1
			OR EXISTS(SELECT 1 FROM group_members WHERE group_id = g.id AND user_id = $1)
		ORDER BY g.created_at DESC
	`, userID, models.ContributionFailed)
	if err != nil {
		slog.Error("GetDashboard groups query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer rows.Close()

	var totalSavings int64
	activeGroups := 0
	groups := []fiber.Map{}
	for rows.Next() {
		var id, name, description, schedule, currency string
		var totalBalance, myContribution int64
		var isActive bool
		var memberCount int
		if err := rows.Scan(&id, &name, &description, &schedule, &totalBalance,
			&isActive, &currency, &memberCount, &myContribution); err != nil {
			slog.Error("GetDashboard scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}

		totalSavings += totalBalance
		status := "inactive"
		if isActive {
			activeGroups++
			status = "active"
		}

		groups = append(groups, fiber.Map{
			"id":             id,
			"name":           name,
			"description":    description,
			"memberCount":    memberCount,
			"totalSavings":   totalBalance,
			"myContribution": myContribution,
			"nextMeeting":    schedule,
			"currency":       currency,
			"status":         status,
		})
	}
	if err := rows.Err(); err != nil {
		slog.Error("GetDashboard rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	// Failed contributions never count toward the caller's totals.
	var totalContributed int64
	err = database.Pool.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(amount), 0) FROM contributions
		WHERE user_id = $1 AND status <> $2
	`, userID, models.ContributionFailed).Scan(&totalContributed)
	if err != nil {
		slog.Error("GetDashboard contribution sum failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	txRows, err := database.Pool.Query(context.Background(), `
		SELECT c.id, c.amount, c.status, c.created_at, g.name
		FROM contributions c
		INNER JOIN groups g ON g.id = c.group_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
		LIMIT 10
	`, userID)
	if err != nil {
		slog.Error("GetDashboard transactions query failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}
	defer txRows.Close()

	transactions := []fiber.Map{}
	for txRows.Next() {
		var con models.Contribution
		var groupName string
		if err := txRows.Scan(&con.ID, &con.Amount, &con.Status, &con.CreatedAt, &groupName); err != nil {
			slog.Error("GetDashboard transaction scan failed", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   "Database error",
			})
		}
		transactions = append(transactions, fiber.Map{
			"id":        con.ID,
			"type":      "contribution",
			"amount":    con.Amount,
			"groupName": groupName,
			"status":    con.Status,
			"date":      con.CreatedAt,
		})
	}
	if err := txRows.Err(); err != nil {
		slog.Error("GetDashboard transaction rows failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Database error",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"stats": fiber.Map{
				"totalSavings":     totalSavings,
				"activeGroups":     activeGroups,
				"totalContributed": totalContributed,
			},
			"groups":       groups,
			"transactions": transactions,
		},
	})
}
