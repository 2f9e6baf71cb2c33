package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ErrCommandNotFound is returned when the feed program cannot be located
var ErrCommandNotFound = errors.New("feed program not found")

// Stream is an opened source. Stderr, Wait and Close are optional; Close runs after
// reading stopped.
type Stream struct {
	Stdout io.Reader
	Stderr io.Reader
	Wait   func() error
	Close  func() error
}

// Source opens a stream of feed lines
type Source interface {
	Open(ctx context.Context) (*Stream, error)
	Name() string
}

// FileSource reads a feed file; "-" reads standard input
type FileSource struct {
	Path string

	in io.Reader // standard input when nil
}

func (s FileSource) Name() string {
	return "file"
}

func (s FileSource) Open(ctx context.Context) (*Stream, error) {
	if s.Path == "-" {
		in := s.in
		if in == nil {
			in = os.Stdin
		}
		return interruptible(ctx, in), nil
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening feed file: %w", err)
	}
	return &Stream{Stdout: f, Close: f.Close}, nil
}

// interruptible streams r through a pipe whose reads fail once ctx is done. Closing
// stdin does not unblock a pending read, so that read is abandoned and its goroutine
// exits with the next line or the process.
func interruptible(ctx context.Context, r io.Reader) *Stream {
	pr, pw := io.Pipe()

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, err := io.Copy(pw, r)
		_ = pw.CloseWithError(err)
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = pr.CloseWithError(ctx.Err())
		case <-copied:
		}
	}()

	return &Stream{Stdout: pr, Close: pr.Close}
}

// CommandSource runs a program and reads its standard output
type CommandSource struct {
	Command string
	Args    []string
}

func (s CommandSource) Name() string {
	return s.Command
}

func (s CommandSource) Open(ctx context.Context) (*Stream, error) {
	binPath, err := FindCommand(s.Command)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, binPath, s.Args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("error starting command %s: %w", strings.Join(append([]string{s.Command}, s.Args...), " "), err)
	}

	return &Stream{Stdout: stdout, Stderr: stderr, Wait: cmd.Wait}, nil
}
