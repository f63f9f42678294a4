package blow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Status is the passive listening indicator state.
type Status struct {
	Listening bool
	Err       error
}

// BlowFunc handles one blow and reports whether listening should continue.
type BlowFunc func(Event) bool

// StatusFunc observes listening status changes.
type StatusFunc func(Status)

// OpenFunc returns a fresh, unstarted sampler for one activation.
type OpenFunc func() Sampler

// Monitor owns a Sampler while enabled and feeds its samples through a
// Detector. All device failures are contained here.
type Monitor struct {
	logger   *slog.Logger
	open     OpenFunc
	detector *Detector
	onBlow   BlowFunc
	onStatus StatusFunc

	mu        sync.Mutex
	gen       uint64
	active    bool
	cancel    context.CancelFunc
	done      chan struct{}
	sampler   Sampler
	listening bool
	err       error
}

// NewMonitor wires a monitor. onStatus may be nil.
func NewMonitor(logger *slog.Logger, open OpenFunc, detector *Detector, onBlow BlowFunc, onStatus StatusFunc) *Monitor {
	if onStatus == nil {
		onStatus = func(Status) {}
	}
	if onBlow == nil {
		onBlow = func(Event) bool { return true }
	}
	return &Monitor{
		logger:   logger,
		open:     open,
		detector: detector,
		onBlow:   onBlow,
		onStatus: onStatus,
	}
}

// Detector exposes the detector for live retuning.
func (m *Monitor) Detector() *Detector {
	return m.detector
}

// Active reports whether the monitor is enabled (acquiring or listening).
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Listening reports whether samples are currently flowing.
func (m *Monitor) Listening() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listening
}

// Err returns the device error from the latest activation, if any.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Enable starts acquiring the device in the background. It is a no-op while
// already enabled.
func (m *Monitor) Enable(ctx context.Context) {
	m.mu.Lock()
	if m.active {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.active = true
	m.cancel = cancel
	m.done = done
	m.err = nil
	m.mu.Unlock()

	m.detector.Reset()
	go m.run(runCtx, gen, done)
}

// Disable cancels the sampling loop and releases the device. Once it returns
// no further blow is delivered. An acquisition still in flight is abandoned
// and releases itself when it resolves.
func (m *Monitor) Disable() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.active = false
	cancel := m.cancel
	done := m.done
	acquired := m.sampler != nil
	wasListening := m.listening
	m.cancel = nil
	m.done = nil
	m.sampler = nil
	m.listening = false
	m.mu.Unlock()

	cancel()
	if acquired {
		<-done
	}
	if wasListening {
		m.onStatus(Status{Listening: false})
	}
}

// run acquires the sampler, then processes samples until cancelled, the
// stream ends, or the blow handler asks to stop.
func (m *Monitor) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	sampler := m.open()
	samples, err := sampler.Start(ctx)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		_ = sampler.Stop()
		return
	}
	if err != nil {
		m.active = false
		if !errors.Is(err, ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		m.err = err
		status := Status{Err: m.err}
		m.mu.Unlock()

		_ = sampler.Stop()
		m.log("blow detection disabled", "error", err.Error())
		m.onStatus(status)
		return
	}
	m.sampler = sampler
	m.listening = true
	m.mu.Unlock()

	m.onStatus(Status{Listening: true})
	m.loop(ctx, samples)
	_ = sampler.Stop()

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	m.active = false
	m.listening = false
	m.sampler = nil
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	m.onStatus(Status{Listening: false})
}

func (m *Monitor) loop(ctx context.Context, samples <-chan Sample) {
	for {
		select {
		case <-ctx.Done():
			return
		case sample, ok := <-samples:
			if !ok {
				return
			}
			if !m.detector.Observe(sample) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			m.log("blow detected", "level", sample.Level, "at_ms", sample.At.Milliseconds())
			if !m.onBlow(Event{Level: sample.Level, At: sample.At}) {
				return
			}
		}
	}
}

func (m *Monitor) log(msg string, args ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Debug(msg, args...)
}
