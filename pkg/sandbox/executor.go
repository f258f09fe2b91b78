package sandbox

import (
	"context"
	"time"
)

// Executor runs one untrusted program inside an isolation boundary and
// returns its raw streams. Implementations own the OS-level primitives
// (containers, subprocess limits); callers own grading.
type Executor interface {
	Run(ctx context.Context, req ExecutionRequest) (ExecutionResult, error)
}

// ExecutionRequest describes one program run. Source is written into the
// workspace together with any dataset files before the command starts.
type ExecutionRequest struct {
	Workspace     string
	Command       []string
	Env           []string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
}

// ExecutionResult summarises one run. TimedOut means the wall-clock ceiling
// fired and the process was killed; the streams hold whatever was produced
// before that.
type ExecutionResult struct {
	Stdout           string
	Stderr           string
	ExitCode         int
	Duration         time.Duration
	TimedOut         bool
	MemoryUsageBytes int64
}
