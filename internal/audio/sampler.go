package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbright/cakemic/internal/blow"
)

// PulseOptions configures a live microphone sampler.
type PulseOptions struct {
	Input    string
	Fallback string
	Frames   FrameConfig
	// DumpPath, when set, receives the captured audio as a WAV file.
	DumpPath string
	Logger   *slog.Logger
}

// PulseSampler implements blow.Sampler on top of a Pulse record stream.
type PulseSampler struct {
	opts PulseOptions

	mu      sync.Mutex
	capture *Capture
	dump    *wavDump
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool
}

// NewPulseSampler returns an unstarted sampler. Each instance serves one
// Start/Stop cycle.
func NewPulseSampler(opts PulseOptions) *PulseSampler {
	if opts.Frames.FrameRate == 0 {
		opts.Frames = DefaultFrameConfig()
	}
	return &PulseSampler{opts: opts, stopCh: make(chan struct{})}
}

// Start selects the device, opens the record stream, and returns the
// loudness stream. Failures wrap blow.ErrDeviceUnavailable.
func (p *PulseSampler) Start(ctx context.Context) (<-chan blow.Sample, error) {
	frames, err := newFramer(p.opts.Frames, CaptureSampleRate)
	if err != nil {
		return nil, err
	}

	selection, err := SelectDevice(ctx, p.opts.Input, p.opts.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blow.ErrDeviceUnavailable, err)
	}
	if selection.Warning != "" && p.opts.Logger != nil {
		p.opts.Logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: sampler stopped", blow.ErrDeviceUnavailable)
	}
	p.mu.Unlock()

	capture, err := OpenCapture(ctx, selection.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", blow.ErrDeviceUnavailable, err)
	}

	var dump *wavDump
	if p.opts.DumpPath != "" {
		dump, err = createWAVDump(p.opts.DumpPath, CaptureSampleRate)
		if err != nil && p.opts.Logger != nil {
			p.opts.Logger.Warn("audio dump disabled", "path", p.opts.DumpPath, "error", err.Error())
		}
	}

	out := make(chan blow.Sample, 16)
	done := make(chan struct{})

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		_ = capture.Close()
		_ = dump.Close()
		return nil, fmt.Errorf("%w: sampler stopped", blow.ErrDeviceUnavailable)
	}
	p.capture = capture
	p.dump = dump
	p.done = done
	p.mu.Unlock()

	if p.opts.Logger != nil {
		p.opts.Logger.Info("microphone acquired", "device", selection.Device.ID, "fallback", selection.Fallback)
	}

	go p.pump(capture, frames, dump, out, done)
	return out, nil
}

func (p *PulseSampler) pump(capture *Capture, frames *framer, dump *wavDump, out chan<- blow.Sample, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	emit := func(s blow.Sample) bool {
		select {
		case <-p.stopCh:
			return false
		case out <- s:
			return true
		}
	}
	for chunk := range capture.PCM() {
		dump.WritePCM16(chunk)
		if !frames.feedPCM16(chunk, emit) {
			return
		}
	}
}

// Stop releases the device. It is idempotent and safe before Start.
func (p *PulseSampler) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	capture, dump, done := p.capture, p.dump, p.done
	p.mu.Unlock()

	if capture == nil {
		return nil
	}
	err := capture.Close()
	<-done
	if p.opts.Logger != nil {
		p.opts.Logger.Info("microphone released", "device", capture.Device().ID, "dropped_buffers", capture.Dropped())
	}
	if derr := dump.Close(); derr != nil && err == nil {
		err = derr
	}
	return err
}
