package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/pyquest-go-api/internal/config"
	"github.com/noah-isme/pyquest-go-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
	Runner      string    `json:"runner"`
}

// HealthCheck returns a handler that reports application health information.
// The runner probe is best-effort: a down runner degrades the payload but the
// endpoint still answers 200 so load balancers keep routing API traffic.
func HealthCheck(cfg config.Config, probe func(c *fiber.Ctx) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		runnerStatus := "ok"
		if probe != nil {
			if err := probe(c); err != nil {
				runnerStatus = "unreachable"
			}
		}

		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Runner:      runnerStatus,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
