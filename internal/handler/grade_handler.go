package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/dto"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/schema"
	"github.com/noah-isme/pyquest-go-api/internal/service"
	"github.com/noah-isme/pyquest-go-api/internal/utils"
)

// GradeHandler manages the grading endpoint.
type GradeHandler struct {
	service service.GradingService
	logger  zerolog.Logger
}

// NewGradeHandler builds a grade handler instance.
func NewGradeHandler(service service.GradingService, logger zerolog.Logger) *GradeHandler {
	return &GradeHandler{
		service: service,
		logger:  logger.With().Str("component", "grade_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *GradeHandler) Register(router fiber.Router) {
	router.Post("", h.grade)
}

func (h *GradeHandler) grade(c *fiber.Ctx) error {
	var payload dto.GradeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Grade(c.UserContext(), callerFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission graded", result)
}

func (h *GradeHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	case errors.Is(err, grader.ErrWrongSubmission):
		return utils.SendError(c, fiber.StatusBadRequest, "submission does not match the exercise type")
	case errors.Is(err, service.ErrExerciseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exercise not found")
	case errors.Is(err, service.ErrSubmissionTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "submission exceeds the size limit")
	case errors.Is(err, grader.ErrExecutorUnavailable):
		return utils.SendErrorWithCode(c, fiber.StatusServiceUnavailable, "RUNNER_UNAVAILABLE", "code execution is temporarily unavailable")
	case errors.Is(err, grader.ErrExecutorTimeout):
		return utils.SendErrorWithCode(c, fiber.StatusGatewayTimeout, "RUNNER_TIMEOUT", "code execution timed out")
	case errors.Is(err, schema.ErrInvalidDefinition), errors.Is(err, grader.ErrInvalidExercise):
		h.logger.Error().Err(err).Msg("exercise definition rejected")
		return utils.SendError(c, fiber.StatusInternalServerError, "exercise definition is invalid")
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
