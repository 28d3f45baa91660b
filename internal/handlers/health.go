package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

// Health checks every named dependency and reports 503 if any is down.
func Health(deps map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		checks := fiber.Map{}
		for name, ping := range deps {
			if err := ping(c.UserContext()); err != nil {
				status = fiber.StatusServiceUnavailable
				checks[name] = err.Error()
				continue
			}
			checks[name] = "ok"
		}
		return c.Status(status).JSON(fiber.Map{
			"success": status == fiber.StatusOK,
			"checks":  checks,
		})
	}
}
