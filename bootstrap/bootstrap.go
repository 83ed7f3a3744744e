package bootstrap

import (
	"pettie-backend/internal/config"
	"pettie-backend/internal/interfaces/router"
	"pettie-backend/internal/platform/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosts (the api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, App: "pettie-api"})
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
