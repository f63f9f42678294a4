package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// ErrAlreadyRunning reports a live party already owning the socket.
var ErrAlreadyRunning = errors.New("cakemic party already running")

// RuntimeSocketPath is the control socket under XDG_RUNTIME_DIR.
func RuntimeSocketPath() (string, error) {
	dir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if dir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(dir, "cakemic.sock"), nil
}

// AcquireOptions bounds stale-socket recovery.
type AcquireOptions struct {
	ProbeTimeout time.Duration
	Retries      int
	// Rescue runs after a dead owner's socket is removed.
	Rescue func(context.Context)
}

// Owner is the listening control socket of one party. Close unlinks it.
type Owner struct {
	net.Listener
	path string
	once sync.Once
	err  error
}

// Path is the socket file location.
func (o *Owner) Path() string {
	return o.path
}

// Close stops listening and removes the socket file. It is idempotent.
func (o *Owner) Close() error {
	o.once.Do(func() {
		o.err = o.Listener.Close()
		if err := os.Remove(o.path); err != nil && !errors.Is(err, os.ErrNotExist) && o.err == nil {
			o.err = err
		}
	})
	return o.err
}

// errStaleSocket marks a dead owner's socket that was just removed.
var errStaleSocket = errors.New("stale socket removed")

// Acquire claims path for a new party. A socket left by a dead owner is
// removed and retried with backoff; a responsive owner yields
// ErrAlreadyRunning. A socket whose owner does not answer in time is left in
// place.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (*Owner, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("ensure runtime socket dir: %w", err)
	}

	attempt := 0
	claim := func() (*Owner, error) {
		defer func() { attempt++ }()

		listener, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return &Owner{Listener: listener, path: path}, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, backoff.Permanent(fmt.Errorf("listen unix %s: %w", path, err))
		}

		alive, err := Probe(ctx, path, opts.ProbeTimeout)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("probe existing socket %s: %w", path, err))
		}
		if alive {
			return nil, backoff.Permanent(ErrAlreadyRunning)
		}
		if attempt >= opts.Retries {
			return nil, backoff.Permanent(fmt.Errorf("socket %s still busy after %d attempts", path, attempt+1))
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, backoff.Permanent(fmt.Errorf("remove stale socket %s: %w", path, err))
		}
		if opts.Rescue != nil {
			opts.Rescue(ctx)
		}
		return nil, errStaleSocket
	}

	return backoff.Retry(ctx, claim,
		backoff.WithBackOff(acquireBackOff()),
		backoff.WithMaxTries(uint(max(opts.Retries, 0))+1),
	)
}

func acquireBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 400 * time.Millisecond
	b.RandomizationFactor = 0.2
	b.Reset()
	return b
}
