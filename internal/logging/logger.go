// Package logging writes the JSONL runtime log under the XDG state directory.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const fileName = "log.jsonl"

// rotateBytes is the size at which the previous log is moved to log.jsonl.1.
var rotateBytes int64 = 8 << 20

// Runtime is a configured logger and the file it writes to.
type Runtime struct {
	Logger *slog.Logger
	Path   string
	Level  slog.Level
	closer io.Closer
}

type options struct {
	Level slog.Level `env:"CAKEMIC_LOG_LEVEL" envDefault:"INFO"`
	Dir   string     `env:"CAKEMIC_LOG_DIR"`
}

// Close closes the log file.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New opens the runtime log. CAKEMIC_LOG_LEVEL picks the level (debug, info,
// warn, error) and CAKEMIC_LOG_DIR replaces the state directory.
func New() (Runtime, error) {
	opts, err := env.ParseAs[options]()
	if err != nil {
		return Runtime{}, fmt.Errorf("parse log env: %w", err)
	}

	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		if dir, err = StateDir(); err != nil {
			return Runtime{}, err
		}
	}
	path := filepath.Join(dir, fileName)

	f, err := open(path)
	if err != nil {
		return Runtime{}, err
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level})).
		With("pid", os.Getpid())
	return Runtime{Logger: logger, Path: path, Level: opts.Level, closer: f}, nil
}

// StateDir is $XDG_STATE_HOME/cakemic, or ~/.local/state/cakemic.
func StateDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "cakemic"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve state dir: %w", err)
	}
	return filepath.Join(home, ".local", "state", "cakemic"), nil
}

// open appends to path, first moving an oversized log aside.
func open(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if info, err := os.Stat(path); err == nil && info.Size() >= rotateBytes {
		if err := os.Rename(path, path+".1"); err != nil {
			return nil, fmt.Errorf("rotate log: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return f, nil
}
