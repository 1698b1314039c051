// Package procexec runs external programs as argument vectors with a hard
// timeout. No command ever passes through an interpreting shell; untrusted
// values stay discrete vector elements.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Anand0295/storyforge/pkg/security"
)

// DefaultTimeout matches the generation engine's worst case: remote model
// pulls and full story runs may take minutes.
const DefaultTimeout = 5 * time.Minute

var tracer = otel.Tracer("github.com/Anand0295/storyforge/pkg/procexec")

// Command is an ordered argument vector; Program is the first element.
type Command struct {
	Program string
	Args    []string
}

// NewCommand builds a Command after rejecting obviously hostile elements.
// Arguments keep their literal value; shell metacharacters are harmless
// here because nothing interprets them.
func NewCommand(program string, args ...string) (Command, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return Command{}, &security.ValidationError{Class: "program", Reason: "empty"}
	}
	if strings.ContainsRune(program, 0) {
		return Command{}, &security.ValidationError{Class: "program", Reason: "contains NUL byte"}
	}
	for _, arg := range args {
		if strings.ContainsRune(arg, 0) {
			return Command{}, &security.ValidationError{Class: "argument", Reason: "contains NUL byte"}
		}
	}
	return Command{Program: program, Args: append([]string(nil), args...)}, nil
}

// Vector returns the full argument vector including the program.
func (c Command) Vector() []string {
	return append([]string{c.Program}, c.Args...)
}

// Result captures one finished process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// TimeoutError reports a child that exceeded its deadline and was killed
// together with its process group.
type TimeoutError struct {
	Program string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("procexec: %s timed out after %s", e.Program, e.Timeout)
}

// ExitError reports a non-zero exit. The captured stderr travels with it so
// callers can surface diagnostics; whether non-zero is fatal is the
// caller's decision.
type ExitError struct {
	Program string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("procexec: %s exited with code %d", e.Program, e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Runner executes commands. The zero value is usable; Dir and Env override
// the working directory and environment when set.
type Runner struct {
	Dir string
	Env []string
}

// Run starts cmd in its own process group and blocks until it finishes or
// timeout elapses. On timeout the whole group is killed so no descendant
// outlives the call, and a *TimeoutError is returned. Run never retries.
func (r *Runner) Run(ctx context.Context, cmd Command, timeout time.Duration) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if cmd.Program == "" {
		return Result{}, &security.ValidationError{Class: "program", Reason: "empty"}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, span := tracer.Start(ctx, "procexec.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("procexec.program", cmd.Program),
		attribute.Int("procexec.arg_count", len(cmd.Args)),
	)

	child := exec.Command(cmd.Program, cmd.Args...)
	child.Dir = r.Dir
	child.Env = r.Env
	if child.Env == nil {
		child.Env = os.Environ()
	}
	child.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	child.Stdout = &stdout
	child.Stderr = &stderr

	start := time.Now()
	if err := child.Start(); err != nil {
		span.SetStatus(codes.Error, "start failed")
		span.RecordError(err)
		return Result{}, fmt.Errorf("procexec: start %s: %w", cmd.Program, err)
	}

	done := make(chan error, 1)
	go func() { done <- child.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killGroup(child)
		waitErr = <-done
	case <-ctx.Done():
		killGroup(child)
		<-done
		span.SetStatus(codes.Error, "context cancelled")
		return Result{}, fmt.Errorf("procexec: %s: %w", cmd.Program, ctx.Err())
	}

	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if timedOut {
		terr := &TimeoutError{Program: cmd.Program, Timeout: timeout}
		span.SetStatus(codes.Error, "timeout")
		span.RecordError(terr)
		return result, terr
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			perr := &ExitError{Program: cmd.Program, Code: result.ExitCode, Stderr: result.Stderr}
			span.SetAttributes(attribute.String("procexec.exit_code", strconv.Itoa(result.ExitCode)))
			span.SetStatus(codes.Error, "non-zero exit")
			span.RecordError(perr)
			return result, perr
		}
		span.SetStatus(codes.Error, "wait failed")
		span.RecordError(waitErr)
		return result, fmt.Errorf("procexec: %s: %w", cmd.Program, waitErr)
	}

	span.SetAttributes(attribute.String("procexec.exit_code", "0"))
	return result, nil
}

// killGroup terminates the child's process group so helper processes the
// engine spawned cannot be orphaned.
func killGroup(child *exec.Cmd) {
	if child == nil || child.Process == nil {
		return
	}
	pid := child.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		// Group already gone or never created; fall back to the process.
		_ = child.Process.Kill()
	}
}
