package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// levelRouter is a slog.Handler that sends ERROR and above to one handler and
// everything else to another.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

func newLevelRouter(stdout, stderr io.Writer, min slog.Level) *levelRouter {
	opts := &slog.HandlerOptions{Level: min}
	return &levelRouter{
		min:    min,
		stdout: slog.NewTextHandler(stdout, opts),
		stderr: slog.NewTextHandler(stderr, opts),
	}
}

// setupLogger installs the default logger. INFO/WARN go to stdout, ERROR to
// stderr; with a logPath every record is also appended to that file. The
// returned cleanup closes the file.
func setupLogger(logPath string, debug bool) (func(), error) {
	min := slog.LevelInfo
	if debug {
		min = slog.LevelDebug
	}

	cleanup := func() {}
	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	slog.SetDefault(slog.New(newLevelRouter(stdoutW, stderrW, min)))
	return cleanup, nil
}
