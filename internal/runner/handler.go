package runner

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/transport"
)

// ServiceName identifies the runner in its health payload.
const ServiceName = "pyquest-runner"

// Handler exposes the runner's fixed wire contract: POST /run and
// GET /health. Responses use the flat runner schema, not the API envelope.
type Handler struct {
	service *Service
	version string
	logger  zerolog.Logger
}

// NewHandler builds the runner HTTP handler.
func NewHandler(service *Service, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		version: version,
		logger:  logger.With().Str("component", "runner_handler").Logger(),
	}
}

// Register attaches the runner routes to the app.
func (h *Handler) Register(app *fiber.App) {
	app.Post("/run", h.run)
	app.Get("/health", h.health)
}

func (h *Handler) run(c *fiber.Ctx) error {
	var req transport.RunRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid JSON",
		})
	}

	resp, err := h.service.Run(c.Context(), req)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrEmptyCode) || errors.Is(err, ErrCodeTooLarge) || errors.Is(err, ErrBadDataset) {
			status = fiber.StatusBadRequest
		} else {
			h.logger.Error().Err(err).Msg("run failed")
		}
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.JSON(resp)
}

func (h *Handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": ServiceName,
		"version": h.version,
	})
}
