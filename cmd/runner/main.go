package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/config"
	"github.com/noah-isme/pyquest-go-api/internal/runner"
	"github.com/noah-isme/pyquest-go-api/pkg/sandbox"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadRunner()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	var executor sandbox.Executor
	switch cfg.Backend {
	case "docker":
		executor, err = sandbox.NewDockerExecutor(sandbox.DockerConfig{
			Host:          cfg.DockerHost,
			Image:         cfg.Image,
			Timeout:       cfg.ExecutionTimeout,
			MemoryLimitMB: cfg.MemoryLimitMB,
			CPUShares:     cfg.CPUShares,
			Logger:        logger,
		})
		if err != nil {
			log.Fatalf("failed to create docker executor: %v", err)
		}
	case "local":
		executor = sandbox.NewLocalExecutor(cfg.ExecutionTimeout, logger)
	default:
		log.Fatalf("unknown runner backend %q", cfg.Backend)
	}

	service := runner.NewService(executor, runner.Config{
		ExecutionTimeout: cfg.ExecutionTimeout,
		MaxCodeBytes:     cfg.MaxCodeBytes,
		MaxOutputBytes:   cfg.MaxOutputBytes,
		WorkspaceRoot:    cfg.WorkspaceRoot,
		MemoryLimitMB:    cfg.MemoryLimitMB,
		CPUShares:        cfg.CPUShares,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      runner.ServiceName,
		ServerHeader: runner.ServiceName,
	})
	app.Use(recover.New())

	runner.NewHandler(service, version, logger).Register(app)

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
