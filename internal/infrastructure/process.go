package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

const maxLineSize = 1024 * 1024

// runOutputWaitDelay bounds how long RunOutput keeps reading after ctx is done
const runOutputWaitDelay = time.Second

// Process is a running child whose stdout and stderr share one pipe.
// Output is delivered line by line on Lines as the child writes it.
// The child is always reaped, even when the caller stops reading.
type Process struct {
	cmd     *exec.Cmd
	out     *os.File
	lines   chan string
	abandon chan struct{}
	once    sync.Once
	exited  chan struct{}

	exitCode int
	waitErr  error
}

// ProcessOption customises the child before it starts
type ProcessOption func(*exec.Cmd)

// WithEnv appends environment variables to the child's environment
func WithEnv(env ...string) ProcessOption {
	return func(cmd *exec.Cmd) {
		if cmd.Env == nil {
			cmd.Env = os.Environ()
		}
		cmd.Env = append(cmd.Env, env...)
	}
}

// StartProcess spawns binary with args. The context only bounds the start;
// a cancelled context never kills a started child.
func StartProcess(ctx context.Context, binary string, args []string, opts ...ProcessOption) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	cmd := exec.Command(binary, args...)
	for _, opt := range opts {
		opt(cmd)
	}
	// Same *os.File for both streams: the child inherits one descriptor
	// and interleaving matches what a terminal would show.
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}
	// The child holds its own copy; EOF on r now means the child is done writing.
	w.Close()

	p := &Process{
		cmd:     cmd,
		out:     r,
		lines:   make(chan string),
		abandon: make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go p.pump()
	return p, nil
}

// Pid returns the child's process id
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Lines returns the merged output, one line per value. The channel closes
// at end of stream or after Abandon.
func (p *Process) Lines() <-chan string {
	return p.lines
}

// Wait blocks until the child exits and returns its exit code.
// A non-nil error means the status could not be determined.
func (p *Process) Wait() (int, error) {
	<-p.exited
	return p.exitCode, p.waitErr
}

// WaitContext is Wait that gives up when ctx is done. The child keeps running
// and is reaped in the background.
func (p *Process) WaitContext(ctx context.Context) (int, error) {
	select {
	case <-p.exited:
		return p.exitCode, p.waitErr
	case <-ctx.Done():
		p.Abandon()
		return -1, ctx.Err()
	}
}

// Abandon stops line delivery. Remaining output is discarded. Safe to call
// more than once and after the child has exited.
func (p *Process) Abandon() {
	p.once.Do(func() { close(p.abandon) })
}

// Exited is closed once the child has been reaped
func (p *Process) Exited() <-chan struct{} {
	return p.exited
}

func (p *Process) pump() {
	defer close(p.exited)

	scanner := bufio.NewScanner(p.out)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(scanLinesCR)

	abandoned := false
	for !abandoned && scanner.Scan() {
		select {
		case p.lines <- scanner.Text():
		case <-p.abandon:
			abandoned = true
		}
	}
	close(p.lines)

	// Keep the pipe drained so the child never blocks on a full buffer.
	io.Copy(io.Discard, p.out)
	p.out.Close()

	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		p.exitCode = 0
	case errors.As(err, &exitErr):
		p.exitCode = exitErr.ExitCode()
	default:
		p.exitCode = -1
		p.waitErr = err
	}
}

// scanLinesCR splits on \n or \r so that carriage-return progress updates
// are delivered as separate lines.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		advance = i + 1
		// Treat \r\n as a single terminator.
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			advance++
		} else if data[i] == '\r' && i+1 == len(data) && !atEOF {
			return 0, nil, nil
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// RunOutput runs binary to completion under ctx and returns its stdout.
// Used for short probes where killing on timeout is wanted.
func RunOutput(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	// Killing the child does not close pipes held by its own children
	// (wrapper scripts, bundled launchers); stop waiting on them after this.
	cmd.WaitDelay = runOutputWaitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return out, fmt.Errorf("%w: %s", err, lastLine(msg))
		}
		return out, err
	}
	return out, nil
}

func lastLine(b []byte) string {
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		return string(b[i+1:])
	}
	return string(b)
}
