package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// LocalExecutor runs code as a plain subprocess with a context deadline. It
// provides no filesystem or network isolation and exists for development and
// tests; production deployments use the Docker backend.
type LocalExecutor struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// NewLocalExecutor constructs the subprocess-backed executor.
func NewLocalExecutor(timeout time.Duration, logger zerolog.Logger) *LocalExecutor {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &LocalExecutor{
		timeout: timeout,
		logger:  logger.With().Str("component", "local_executor").Logger(),
	}
}

// Run executes the command in the workspace directory, killing it when the
// wall-clock ceiling fires.
func (e *LocalExecutor) Run(ctx context.Context, req ExecutionRequest) (ExecutionResult, error) {
	if len(req.Command) == 0 {
		return ExecutionResult{}, errors.New("command is required")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = e.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, req.Command[0], req.Command[1:]...)
	cmd.Dir = req.Workspace
	cmd.Env = append(cmd.Env, req.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	runDuration.WithLabelValues("local").Observe(duration.Seconds())

	result := ExecutionResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		runTimeouts.WithLabelValues("local").Inc()
		return result, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		runFailures.WithLabelValues("local").Inc()
		return result, err
	}

	return result, nil
}
