// ABOUTME: Runs validated execution plans via bash -c with a timeout and an output cap
// ABOUTME: Captures combined stdout+stderr under a restricted environment

package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	nlog "github.com/mauromedda/nlsh/internal/log"
	"github.com/mauromedda/nlsh/internal/plan"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxOutput = 1 << 20 // 1MB
)

var errOutputLimitExceeded = errors.New("output limit exceeded")

// limitedWriter stops accepting data after limit bytes.
type limitedWriter struct {
	w        io.Writer
	limit    int
	written  int
	exceeded bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	remaining := lw.limit - lw.written
	if remaining <= 0 {
		lw.exceeded = true
		return 0, errOutputLimitExceeded
	}
	if len(p) > remaining {
		n, err := lw.w.Write(p[:remaining])
		lw.written += n
		lw.exceeded = true
		if err != nil {
			return n, err
		}
		return n, errOutputLimitExceeded
	}
	n, err := lw.w.Write(p)
	lw.written += n
	return n, err
}

// Config holds executor settings. Zero values take defaults.
type Config struct {
	Timeout   time.Duration
	MaxOutput int
	Dir       string // working directory; empty means the current one
}

// Output is the result of a finished command.
type Output struct {
	Command   string
	Combined  string // stdout and stderr interleaved
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// Executor runs plans after validating them.
type Executor struct {
	cfg Config
}

// NewExecutor creates an executor, applying defaults.
func NewExecutor(cfg Config) *Executor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	return &Executor{cfg: cfg}
}

// Run validates and executes the plan's command.
func (x *Executor) Run(ctx context.Context, p *plan.ExecutionPlan) (Output, error) {
	if p == nil {
		return Output{}, fmt.Errorf("%w: no plan", ErrCommandBlocked)
	}
	return x.RunCommand(ctx, p.Command())
}

// RunCommand sanitizes, validates and executes command. A non-zero exit is
// reported in Output.ExitCode, not as an error; errors mean the command was
// refused, could not start, or timed out.
func (x *Executor) RunCommand(ctx context.Context, command string) (Output, error) {
	command = Sanitize(command)
	out := Output{Command: command}
	if err := Validate(command); err != nil {
		nlog.Warn("shell: refused %q: %v", command, err)
		return out, err
	}

	bashPath, err := exec.LookPath("bash")
	if err != nil {
		return out, fmt.Errorf("bash not found on PATH: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, x.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bashPath, "-c", command)
	cmd.Env = restrictedEnvironment()
	cmd.Dir = x.cfg.Dir

	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, limit: x.cfg.MaxOutput}
	cmd.Stdout = lw
	cmd.Stderr = lw

	nlog.Debug("shell: running %q", command)
	start := time.Now()
	err = cmd.Run()
	out.Duration = time.Since(start)
	out.Combined = buf.String()
	out.Truncated = lw.exceeded

	if err != nil {
		if ctx.Err() != nil {
			return out, fmt.Errorf("command timed out after %s: %w", x.cfg.Timeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		switch {
		case lw.exceeded:
			// Hitting the cap breaks the pipe; the output so far is kept.
		case errors.As(err, &exitErr):
			out.ExitCode = exitErr.ExitCode()
		default:
			return out, fmt.Errorf("executing command: %w", err)
		}
	}
	nlog.Debug("shell: exit=%d in %s", out.ExitCode, out.Duration)
	return out, nil
}

// restrictedEnvironment passes through only the variables commands need to
// resolve paths and format output.
func restrictedEnvironment() []string {
	env := []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"SHELL=/bin/bash",
		"TZ=UTC",
	}
	for _, kv := range [][2]string{
		{"HOME", "/tmp"},
		{"USER", "nlsh"},
		{"LANG", "en_US.UTF-8"},
		{"TERM", "xterm"},
	} {
		v := os.Getenv(kv[0])
		if v == "" {
			v = kv[1]
		}
		env = append(env, kv[0]+"="+v)
	}
	return env
}
