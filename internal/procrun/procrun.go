// Package procrun wraps external process invocation with an activity
// timeout, adapted from golang-dep's internal/gps/cmd.go monitoredCmd. Every
// blocking subprocess boundary this spec requires (installer, validator)
// goes through this one wrapper so a hung subprocess degrades to a
// timeout error rather than hanging the agent forever, per spec.md §5:
// "implementations may impose per-subprocess timeouts but must treat a
// timeout as a validator or installer failure."
package procrun

import (
	"bytes"
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultIdleTimeout is used when a caller doesn't override it; chosen to be
// generous enough for a slow dependency resolver without hanging a CI job
// indefinitely.
const DefaultIdleTimeout = 10 * time.Minute

// Result is the exit status and captured output of a monitored command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Monitored wraps cmd and keeps monitoring the process until it finishes,
// ctx is canceled, or idleTimeout passes with no activity on either stream.
type Monitored struct {
	cmd     *exec.Cmd
	timeout time.Duration
	ctx     context.Context
	stdout  *activityBuffer
	stderr  *activityBuffer
}

// New wraps cmd for monitored execution. A zero idleTimeout uses
// DefaultIdleTimeout.
func New(ctx context.Context, cmd *exec.Cmd, idleTimeout time.Duration) *Monitored {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	stdout, stderr := newActivityBuffer(), newActivityBuffer()
	cmd.Stdout, cmd.Stderr = stdout, stderr
	return &Monitored{cmd: cmd, timeout: idleTimeout, ctx: ctx, stdout: stdout, stderr: stderr}
}

// Run runs the command to completion (or until timeout/cancellation kills
// it) and returns the captured result. A kill due to the idle timeout is
// reported as ExitCode -1 with a nil error, so callers can route it through
// the ordinary install/validate failure path instead of treating it as
// fatal; only a failure to kill the timed-out process is returned as an
// error. Cancellation of ctx kills the process and returns ExitCode -1
// together with ctx.Err().
func (m *Monitored) Run() (Result, error) {
	ticker := time.NewTicker(m.timeout)
	defer ticker.Stop()
	done := make(chan error, 1)
	go func() { done <- m.cmd.Run() }()

	for {
		select {
		case <-ticker.C:
			if m.hasTimedOut() {
				if err := m.cmd.Process.Kill(); err != nil {
					return m.result(-1), errors.Wrap(err, "killing timed-out process")
				}
				return m.result(-1), nil
			}
		case <-m.ctx.Done():
			if m.cmd.Process != nil {
				_ = m.cmd.Process.Kill()
			}
			return m.result(-1), m.ctx.Err()
		case err := <-done:
			code := 0
			if err != nil {
				if exitErr, ok := err.(*exec.ExitError); ok {
					code = exitErr.ExitCode()
				} else {
					return m.result(-1), errors.Wrap(err, "running command")
				}
			}
			return m.result(code), nil
		}
	}
}

func (m *Monitored) result(code int) Result {
	return Result{Stdout: m.stdout.buf.String(), Stderr: m.stderr.buf.String(), ExitCode: code}
}

func (m *Monitored) hasTimedOut() bool {
	t := time.Now().Add(-m.timeout)
	return m.stderr.lastActivity().Before(t) && m.stdout.lastActivity().Before(t)
}

// activityBuffer is a buffer that tracks the last time it was written to,
// letting Monitored distinguish "still producing output" from "hung".
type activityBuffer struct {
	sync.Mutex
	buf    *bytes.Buffer
	lastAt time.Time
}

func newActivityBuffer() *activityBuffer {
	return &activityBuffer{buf: bytes.NewBuffer(nil)}
}

func (b *activityBuffer) Write(p []byte) (int, error) {
	b.Lock()
	defer b.Unlock()
	b.lastAt = time.Now()
	return b.buf.Write(p)
}

func (b *activityBuffer) lastActivity() time.Time {
	b.Lock()
	defer b.Unlock()
	return b.lastAt
}

// Run is a convenience one-shot: build the exec.Cmd, wrap it, run it, and
// translate errors, for callers (installer/validator/oracle shells) that
// don't need to hold onto the Monitored value.
func Run(ctx context.Context, idleTimeout time.Duration, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	m := New(ctx, cmd, idleTimeout)
	res, err := m.Run()
	if err != nil {
		return res, errors.Wrapf(err, "running %s", name)
	}
	return res, nil
}
