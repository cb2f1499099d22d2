// Package logs builds the process logger: human-readable text on the
// terminal, optionally mirrored as JSON lines into a file.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

type Options struct {
	Level    string
	Terminal io.Writer
	JSONFile string
}

// ParseLevel accepts debug, info, warn or error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New returns the logger and a closer for the JSON file, if any.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := new(slog.LevelVar)
	if opts.Level != "" {
		l, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, nil, err
		}
		level.Set(l)
	}

	terminal := opts.Terminal
	if terminal == nil {
		terminal = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(terminal, &slog.HandlerOptions{Level: level}),
	}

	var closer io.Closer = nopCloser{}
	if opts.JSONFile != "" {
		f, err := os.OpenFile(opts.JSONFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("os.OpenFile: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
		closer = f
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
