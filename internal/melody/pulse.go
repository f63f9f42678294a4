package melody

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jfreymuth/pulse"
)

// PulsePlayer plays the synthesized phrase, or a configured audio file, on a
// Pulse playback stream. Files the decoders cannot read are handed to
// pw-play. The Pulse client only exists while a playback is running.
type PulsePlayer struct {
	logger *slog.Logger
	file   string
	synth  Clip

	decode   func(path string) (Clip, error)
	playClip func(ctx context.Context, clip Clip) error
	external func(ctx context.Context, path string) error

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPulsePlayer builds a player for the birthday phrase. file may be empty.
func NewPulsePlayer(logger *slog.Logger, file string) *PulsePlayer {
	return &PulsePlayer{
		logger:   logger,
		file:     expandUserPath(file),
		synth:    Clip{Rate: sampleRate, PCM: Synthesize(Birthday)},
		decode:   DecodeFile,
		playClip: playPulse,
		external: playWithPWPlay,
	}
}

// Play starts playback in the background. It is a no-op while a playback is
// already running.
func (p *PulsePlayer) Play(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		select {
		case <-p.done:
		default:
			return
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go func() {
		defer close(done)
		defer cancel()
		if err := p.play(runCtx); err != nil && runCtx.Err() == nil {
			p.logDebug("melody playback failed", "error", err.Error())
		}
	}()
}

func (p *PulsePlayer) play(ctx context.Context) error {
	if p.file != "" {
		err := p.playFile(ctx)
		if err == nil || ctx.Err() != nil {
			return err
		}
		p.logDebug("melody file failed, using synth", "path", p.file, "error", err.Error())
	}
	return p.playClip(ctx, p.synth)
}

func (p *PulsePlayer) playFile(ctx context.Context) error {
	clip, err := p.decode(p.file)
	if errors.Is(err, ErrUnsupportedFormat) {
		return p.external(ctx, p.file)
	}
	if err != nil {
		return err
	}
	p.logDebug("melody file decoded", "path", p.file, "rate", clip.Rate, "duration", clip.Duration().String())
	return p.playClip(ctx, clip)
}

// Stop interrupts playback and waits for the stream to be released.
func (p *PulsePlayer) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *PulsePlayer) logDebug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}

func playPulse(ctx context.Context, clip Clip) error {
	samples := clip.PCM
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("cakemic"),
		pulse.ClientApplicationIconName("audio-x-generic"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if ctx.Err() != nil || cursor >= len(samples) {
			return 0, pulse.EndOfData
		}

		n := copy(buf, samples[cursor:])
		cursor += n
		if cursor >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(clip.Rate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName("cakemic celebration"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play melody stream: %w", err)
	}
	return ctx.Err()
}

func playWithPWPlay(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat melody file %q: %w", path, err)
	}
	cmd := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play melody file %q: %w", path, err)
	}
	return nil
}

func expandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw != "~" && !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(raw, "~"), "/"))
}
