package audio

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/rbright/cakemic/internal/blow"
	"github.com/rbright/cakemic/internal/config"
)

// DefaultFrameRate is the number of loudness samples per second of audio.
const DefaultFrameRate = 60

// FrameConfig controls how PCM is turned into loudness samples.
type FrameConfig struct {
	FrameRate int
	Analyser  AnalyserConfig
}

// DefaultFrameConfig returns 60 Hz frames over the stock analyser.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{FrameRate: DefaultFrameRate, Analyser: DefaultAnalyser()}
}

// FramesFromConfig maps the analyzer config section onto a FrameConfig.
func FramesFromConfig(cfg config.AnalyzerConfig) FrameConfig {
	return FrameConfig{
		FrameRate: cfg.FrameRate,
		Analyser: AnalyserConfig{
			FFTSize:   cfg.FFTSize,
			Smoothing: cfg.Smoothing,
			MinDB:     cfg.MinDB,
			MaxDB:     cfg.MaxDB,
		},
	}
}

// framer feeds mono samples into a Spectrum and emits one loudness sample
// per hop. Timestamps come from the number of samples consumed, so replaying
// the same audio always yields the same sequence.
type framer struct {
	spectrum   *Spectrum
	sampleRate int
	frameRate  int

	consumed int64
	frames   int64
	scratch  []float64
}

func newFramer(cfg FrameConfig, sampleRate int) (*framer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if cfg.FrameRate <= 0 || cfg.FrameRate > sampleRate {
		return nil, fmt.Errorf("frame rate %d must be in [1, %d]", cfg.FrameRate, sampleRate)
	}
	spectrum, err := NewSpectrum(cfg.Analyser)
	if err != nil {
		return nil, err
	}
	return &framer{
		spectrum:   spectrum,
		sampleRate: sampleRate,
		frameRate:  cfg.FrameRate,
	}, nil
}

// boundary returns the sample index at which frame k is due.
func (f *framer) boundary(k int64) int64 {
	return k * int64(f.sampleRate) / int64(f.frameRate)
}

// feed pushes samples and calls emit for every frame boundary crossed. It
// stops early and returns false when emit does.
func (f *framer) feed(samples []float64, emit func(blow.Sample) bool) bool {
	for len(samples) > 0 {
		due := f.boundary(f.frames+1) - f.consumed
		take := int64(len(samples))
		if take > due {
			take = due
		}
		f.spectrum.Push(samples[:take])
		f.consumed += take
		samples = samples[take:]

		if f.consumed < f.boundary(f.frames+1) {
			continue
		}
		f.frames++
		sample := blow.Sample{
			Level: f.spectrum.Level(),
			At:    time.Duration(f.consumed) * time.Second / time.Duration(f.sampleRate),
		}
		if !emit(sample) {
			return false
		}
	}
	return true
}

// feedPCM16 decodes little-endian s16 mono PCM and feeds it.
func (f *framer) feedPCM16(pcm []byte, emit func(blow.Sample) bool) bool {
	n := len(pcm) / 2
	if cap(f.scratch) < n {
		f.scratch = make([]float64, n)
	}
	buf := f.scratch[:n]
	for i := range buf {
		buf[i] = float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768
	}
	return f.feed(buf, emit)
}
