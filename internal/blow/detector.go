// Package blow turns a microphone loudness stream into debounced blow events.
package blow

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultThreshold is the loudness (0-255) a sample must exceed.
	DefaultThreshold = 120.0
	// DefaultCooldown is the quiet period enforced between two blows.
	DefaultCooldown = time.Second
)

// ErrDeviceUnavailable reports that the microphone could not be opened.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// Sample is one loudness reading. At is the offset on the sampler's audio
// clock since Start.
type Sample struct {
	Level float64
	At    time.Duration
}

// Event is one detected blow.
type Event struct {
	Level float64
	At    time.Duration
}

// Sampler produces loudness samples from one capture device. Stop must be
// idempotent and safe to call after a failed Start.
type Sampler interface {
	Start(ctx context.Context) (<-chan Sample, error)
	Stop() error
}

// Tuning holds the detector knobs.
type Tuning struct {
	Threshold float64
	Cooldown  time.Duration
}

// DefaultTuning returns the stock threshold and cooldown.
func DefaultTuning() Tuning {
	return Tuning{Threshold: DefaultThreshold, Cooldown: DefaultCooldown}
}

// Detector applies threshold + cooldown to samples.
type Detector struct {
	mu     sync.Mutex
	tuning Tuning
	last   time.Duration
	seen   bool
}

// NewDetector builds a detector with no blow recorded yet.
func NewDetector(tuning Tuning) *Detector {
	return &Detector{tuning: tuning}
}

// Observe reports whether s is a new blow and records it when it is.
func (d *Detector) Observe(s Sample) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.Level <= d.tuning.Threshold {
		return false
	}
	if d.seen && s.At-d.last <= d.tuning.Cooldown {
		return false
	}
	d.last = s.At
	d.seen = true
	return true
}

// Reset forgets the last blow.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = false
	d.last = 0
}

// Tuning returns the active knobs.
func (d *Detector) Tuning() Tuning {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tuning
}

// SetTuning swaps thresholds without touching the cooldown window in flight.
func (d *Detector) SetTuning(tuning Tuning) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tuning = tuning
}
