package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/pyquest-go-api/internal/config"
	"github.com/noah-isme/pyquest-go-api/internal/handler"
	"github.com/noah-isme/pyquest-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	GradeHandler        *handler.GradeHandler
	ExerciseHandler     *handler.ExerciseHandler
	RunnerProbe         func(c *fiber.Ctx) error
	JWTMiddleware       fiber.Handler
	RateLimitMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.RunnerProbe))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided middlewares, or no-ops if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	rateLimit := deps.RateLimitMiddleware
	if rateLimit == nil {
		rateLimit = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ExerciseHandler != nil {
		exercises := api.Group("/exercises", jwtMiddleware)
		deps.ExerciseHandler.Register(exercises)

		attempts := api.Group("/attempts", jwtMiddleware)
		deps.ExerciseHandler.RegisterAttempts(attempts)
	}

	if deps.GradeHandler != nil {
		grade := api.Group("/grade", jwtMiddleware, rateLimit)
		deps.GradeHandler.Register(grade)
	}
}
