package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/audit"
	"github.com/noah-isme/pyquest-go-api/internal/config"
	"github.com/noah-isme/pyquest-go-api/internal/database"
	"github.com/noah-isme/pyquest-go-api/internal/events"
	"github.com/noah-isme/pyquest-go-api/internal/grader"
	"github.com/noah-isme/pyquest-go-api/internal/handler"
	"github.com/noah-isme/pyquest-go-api/internal/middleware"
	"github.com/noah-isme/pyquest-go-api/internal/ratelimit"
	"github.com/noah-isme/pyquest-go-api/internal/repository"
	"github.com/noah-isme/pyquest-go-api/internal/router"
	"github.com/noah-isme/pyquest-go-api/internal/service"
	"github.com/noah-isme/pyquest-go-api/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	exerciseRepo := repository.NewExerciseRepository(db)
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		exerciseRepo = repository.NewCachedExerciseRepository(exerciseRepo, redisClient, cfg.ExerciseCacheTTL, logger)
	}
	attemptRepo := repository.NewAttemptRepository(db)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		conn, err := nats.Connect(cfg.NATSURL, nats.Name(cfg.AppName))
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer conn.Close()
		publisher = events.NewNATSPublisher(conn, "", logger)
	}

	auditSink := audit.NewLogSink(logger)
	runnerClient := transport.NewClient(transport.Config{
		BaseURL:        cfg.RunnerURL,
		RequestTimeout: cfg.RequestTimeout,
		MaxStreamBytes: cfg.MaxStreamBytes,
	}, auditSink, logger)

	dispatcher := grader.NewDispatcher(runnerClient, logger)

	gradingService := service.NewGradingService(exerciseRepo, attemptRepo, dispatcher, publisher, validate, logger, service.GradingConfig{
		MaxSubmissionChars: cfg.MaxCodeChars,
	})
	exerciseService := service.NewExerciseService(exerciseRepo, attemptRepo, logger)

	gradeHandler := handler.NewGradeHandler(gradingService, logger)
	exerciseHandler := handler.NewExerciseHandler(exerciseService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		GradeHandler:    gradeHandler,
		ExerciseHandler: exerciseHandler,
		RunnerProbe: func(c *fiber.Ctx) error {
			return runnerClient.Health(c.UserContext())
		},
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
		RateLimitMiddleware: middleware.RateLimit(middleware.RateLimitConfig{
			Limiter: ratelimit.New(),
			Max:     cfg.RateLimitMax,
			Window:  cfg.RateLimitWindow,
			Sink:    auditSink,
		}),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
