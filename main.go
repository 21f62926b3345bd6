package main

import (
	"context"
	"log/slog"
	"os"

	"trustsave/server/internal/config"
	"trustsave/server/internal/database"
	"trustsave/server/internal/handlers"
	"trustsave/server/internal/routes"
	"trustsave/server/pkg/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found")
	}

	logging.Setup()

	cfg := config.Load()
	handlers.Configure(cfg)

	// Connect to database
	if err := database.Connect(cfg.DatabaseURL); err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(context.Background()); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "TrustSave API v1.0",
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowCredentials: true,
	}))

	// Setup routes
	routes.SetupRoutes(app)

	slog.Info("Server starting", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
