package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pyquest-go-api/internal/checks"
	"github.com/noah-isme/pyquest-go-api/internal/transport"
	"github.com/noah-isme/pyquest-go-api/pkg/sandbox"
)

// Validation errors mapped to 400 at the HTTP boundary.
var (
	ErrEmptyCode    = errors.New("no code provided")
	ErrCodeTooLarge = errors.New("code exceeds maximum size")
	ErrBadDataset   = errors.New("invalid dataset")
)

// Dataset ceilings. Datasets are small named text inputs, not uploads.
const (
	maxDatasetFiles    = 8
	maxDatasetFileSize = 64 * 1024
)

// Config groups runner service knobs.
type Config struct {
	ExecutionTimeout time.Duration
	MaxCodeBytes     int
	MaxOutputBytes   int
	FileName         string
	Command          []string
	WorkspaceRoot    string
	MemoryLimitMB    int64
	CPUShares        int64
}

// Service prepares a workspace, executes the code through the sandbox, and
// evaluates the typed assertions against the single run.
type Service struct {
	executor sandbox.Executor
	cfg      Config
	logger   zerolog.Logger
}

// NewService builds the runner service.
func NewService(executor sandbox.Executor, cfg Config, logger zerolog.Logger) *Service {
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = 2 * time.Second
	}
	if cfg.MaxCodeBytes <= 0 {
		cfg.MaxCodeBytes = 100 * 1024
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 1024 * 1024
	}
	if cfg.FileName == "" {
		cfg.FileName = "main.py"
	}
	if len(cfg.Command) == 0 {
		cfg.Command = []string{"python3", "main.py"}
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	return &Service{
		executor: executor,
		cfg:      cfg,
		logger:   logger.With().Str("component", "runner_service").Logger(),
	}
}

// Run executes one request end to end. A learner program hitting the
// execution ceiling is a normal result with a timeout message in stderr, not
// an error; only infrastructure failures return an error.
func (s *Service) Run(ctx context.Context, req transport.RunRequest) (transport.RunResponse, error) {
	if strings.TrimSpace(req.Code) == "" {
		return transport.RunResponse{}, ErrEmptyCode
	}
	if len(req.Code) > s.cfg.MaxCodeBytes {
		return transport.RunResponse{}, fmt.Errorf("%w (%d bytes)", ErrCodeTooLarge, s.cfg.MaxCodeBytes)
	}

	workspace, err := os.MkdirTemp(s.cfg.WorkspaceRoot, "run-")
	if err != nil {
		return transport.RunResponse{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, s.cfg.FileName), []byte(req.Code), 0o644); err != nil {
		return transport.RunResponse{}, fmt.Errorf("write source: %w", err)
	}

	if req.Dataset != nil {
		if err := s.writeDataset(workspace, req.Dataset); err != nil {
			return transport.RunResponse{}, err
		}
	}

	start := time.Now()
	result, execErr := s.executor.Run(ctx, sandbox.ExecutionRequest{
		Workspace:     workspace,
		Command:       s.cfg.Command,
		Env:           []string{"PYTHONUNBUFFERED=1"},
		Timeout:       s.cfg.ExecutionTimeout,
		MemoryLimitMB: s.cfg.MemoryLimitMB,
		CPUShares:     s.cfg.CPUShares,
	})
	elapsed := time.Since(start)

	if execErr != nil && !result.TimedOut {
		return transport.RunResponse{}, fmt.Errorf("execute: %w", execErr)
	}

	stdout := capStream(result.Stdout, s.cfg.MaxOutputBytes, "[Output truncated - exceeded 1MB limit]")
	stderr := capStream(result.Stderr, s.cfg.MaxOutputBytes, "[Error output truncated - exceeded 1MB limit]")

	if result.TimedOut {
		stdout = ""
		stderr = fmt.Sprintf("Error: Execution timeout (%.0f seconds exceeded)", s.cfg.ExecutionTimeout.Seconds())
	}

	stdout = strings.TrimSpace(stdout)
	stderr = strings.TrimSpace(stderr)

	testResults, allPassed := checks.EvaluateAll(req.Code, stdout, stderr, req.Tests)

	return transport.RunResponse{
		Success:         true,
		Stdout:          stdout,
		Stderr:          stderr,
		TestResults:     testResults,
		ExecutionTimeMs: elapsed.Milliseconds(),
		AllPassed:       allPassed,
	}, nil
}

func (s *Service) writeDataset(workspace string, dataset *transport.Dataset) error {
	if len(dataset.Files) > maxDatasetFiles {
		return fmt.Errorf("%w: at most %d files", ErrBadDataset, maxDatasetFiles)
	}

	for _, file := range dataset.Files {
		name := strings.TrimSpace(file.Name)
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			return fmt.Errorf("%w: bad file name %q", ErrBadDataset, file.Name)
		}
		if len(file.Content) > maxDatasetFileSize {
			return fmt.Errorf("%w: file %q too large", ErrBadDataset, name)
		}

		if file.Content != "" {
			mime := mimetype.Detect([]byte(file.Content))
			if !strings.HasPrefix(mime.String(), "text/") {
				return fmt.Errorf("%w: file %q must be text, got %s", ErrBadDataset, name, mime.String())
			}
		}

		if err := os.WriteFile(filepath.Join(workspace, name), []byte(file.Content), 0o644); err != nil {
			return fmt.Errorf("write dataset file %q: %w", name, err)
		}
	}

	return nil
}

func capStream(s string, limit int, marker string) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "\n" + marker
}
