package routes

import (
	"context"

	"trustsave/server/internal/database"
	"trustsave/server/internal/handlers"
	"trustsave/server/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App) {
	// API v1 group
	api := app.Group("/api")

	// Health check (public)
	api.Get("/health", func(c *fiber.Ctx) error {
		dbStatus := "connected"
		if err := database.Ping(context.Background()); err != nil {
			dbStatus = "disconnected"
		}
		return c.JSON(fiber.Map{
			"status":   "ok",
			"message":  "TrustSave API is running",
			"database": dbStatus,
		})
	})

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", middleware.StrictRateLimiter(), handlers.Register)
	auth.Post("/login", middleware.StrictRateLimiter(), handlers.Login)
	auth.Get("/me", middleware.AuthMiddleware, handlers.GetMe)

	// Group routes (protected)
	groups := api.Group("/groups", middleware.AuthMiddleware)
	groups.Post("/", handlers.CreateGroup)
	groups.Get("/", handlers.GetGroups)
	groups.Get("/:id", handlers.GetGroupDetails)
	groups.Put("/:id", handlers.UpdateGroup)
	groups.Delete("/:id", handlers.DeleteGroup)
	groups.Post("/:id/members", handlers.AddMember)
	groups.Delete("/:id/members", handlers.RemoveMember)
	groups.Get("/:groupId/join-requests", handlers.GetJoinRequests)

	// Invitation routes; details are public so invitees can view before
	// registering
	invitations := api.Group("/invitations")
	invitations.Post("/send", middleware.AuthMiddleware, handlers.SendInvitations)
	invitations.Get("/group/:groupId", middleware.AuthMiddleware, handlers.GetGroupInvitations)
	// Rate limited: the short codes are guessable enough to enumerate
	invitations.Get("/:id", middleware.ModerateRateLimiter(), handlers.GetInvitation)
	invitations.Post("/:id/accept", middleware.AuthMiddleware, handlers.AcceptInvitation)
	invitations.Delete("/:id", middleware.AuthMiddleware, handlers.CancelInvitation)

	// Join request moderation (protected)
	joinRequests := api.Group("/join-requests", middleware.AuthMiddleware)
	joinRequests.Post("/:id/approve", handlers.ApproveJoinRequest)
	joinRequests.Post("/:id/reject", handlers.RejectJoinRequest)

	// Contribution routes (protected)
	contributions := api.Group("/contributions", middleware.AuthMiddleware)
	contributions.Post("/", handlers.InitiateContribution)
	contributions.Get("/group/:groupId", handlers.GetGroupContributions)
	contributions.Get("/user", handlers.GetUserContributions)

	// Dashboard (protected)
	api.Get("/dashboard", middleware.AuthMiddleware, handlers.GetDashboard)
}
