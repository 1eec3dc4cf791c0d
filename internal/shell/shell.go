// Package shell provides guarded command execution for the run_command
// action. Execution is disabled by default and gated by deny patterns
// and an optional allow list.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Config configures the command runner.
type Config struct {
	Enabled         bool
	WorkingDir      string // default working directory for commands
	DeniedPatterns  []string
	AllowedPrefixes []string // empty = allow all (when enabled)
	DefaultTimeout  time.Duration
	MaxOutputBytes  int
}

// Runner executes shell commands under the configured policy.
type Runner struct {
	cfg Config
}

// New creates a Runner, filling in zero-value limits.
func New(cfg Config) *Runner {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = 100 * 1024
	}
	return &Runner{cfg: cfg}
}

// Enabled reports whether command execution is available.
func (r *Runner) Enabled() bool {
	return r.cfg.Enabled
}

// Result contains the outcome of a command execution.
type Result struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out,omitempty"`
	Command  string `json:"command"`
}

// Run executes a shell command in dir (relative to the configured
// working directory when set). A non-positive timeoutSec uses the
// default; timeouts are capped at five minutes.
func (r *Runner) Run(ctx context.Context, command, dir string, timeoutSec int) (*Result, error) {
	if !r.cfg.Enabled {
		return nil, fmt.Errorf("command execution is disabled")
	}
	if command == "" {
		return nil, fmt.Errorf("command is empty")
	}

	cmdLower := strings.ToLower(command)
	for _, denied := range r.cfg.DeniedPatterns {
		if strings.Contains(cmdLower, strings.ToLower(denied)) {
			return nil, fmt.Errorf("command blocked by security policy: matches denied pattern %q", denied)
		}
	}

	if len(r.cfg.AllowedPrefixes) > 0 {
		allowed := false
		for _, prefix := range r.cfg.AllowedPrefixes {
			if strings.HasPrefix(command, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("command not in allowlist")
		}
	}

	timeout := r.cfg.DefaultTimeout
	if timeoutSec > 0 {
		timeout = time.Duration(timeoutSec) * time.Second
	}
	if timeout > 5*time.Minute {
		timeout = 5 * time.Minute
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.cfg.WorkingDir
	if dir != "" {
		if cmd.Dir != "" {
			cmd.Dir = cmd.Dir + "/" + dir
		} else {
			cmd.Dir = dir
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &Result{
		Stdout:  truncate(stdout.String(), r.cfg.MaxOutputBytes),
		Stderr:  truncate(stderr.String(), r.cfg.MaxOutputBytes),
		Command: command,
	}

	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, fmt.Errorf("run command: %w", err)
	}

	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[... output truncated ...]"
}
