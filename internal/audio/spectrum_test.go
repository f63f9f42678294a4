package audio

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/rbright/cakemic/internal/blow"
	"github.com/rbright/cakemic/internal/config"
	"github.com/stretchr/testify/require"
)

func noise(seed uint64, n int, amplitude float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]float64, n)
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

func TestAnalyserConfigValidate(t *testing.T) {
	require.NoError(t, DefaultAnalyser().Validate())

	tests := []struct {
		name string
		cfg  AnalyserConfig
		want string
	}{
		{"not power of two", AnalyserConfig{FFTSize: 250, Smoothing: 0.8, MinDB: -100, MaxDB: -30}, "power of two"},
		{"too small", AnalyserConfig{FFTSize: 16, Smoothing: 0.8, MinDB: -100, MaxDB: -30}, "power of two"},
		{"smoothing one", AnalyserConfig{FFTSize: 256, Smoothing: 1, MinDB: -100, MaxDB: -30}, "smoothing"},
		{"inverted range", AnalyserConfig{FFTSize: 256, Smoothing: 0.8, MinDB: -30, MaxDB: -100}, "min dB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSpectrumSilenceIsZero(t *testing.T) {
	s, err := NewSpectrum(DefaultAnalyser())
	require.NoError(t, err)

	s.Push(make([]float64, 1024))
	bins := s.Bytes()
	require.Len(t, bins, DefaultFFTSize/2)
	for _, b := range bins {
		require.Zero(t, b)
	}
	require.Zero(t, s.Level())
}

func TestSpectrumLoudNoiseCrossesDefaultThreshold(t *testing.T) {
	s, err := NewSpectrum(DefaultAnalyser())
	require.NoError(t, err)

	s.Push(noise(7, DefaultFFTSize, 0.5))
	require.Greater(t, s.Level(), blow.DefaultThreshold)
}

func TestSpectrumQuietNoiseStaysBelowThreshold(t *testing.T) {
	s, err := NewSpectrum(DefaultAnalyser())
	require.NoError(t, err)

	samples := noise(11, 4096, 0.001)
	for i := 0; i+DefaultFFTSize <= len(samples); i += DefaultFFTSize {
		s.Push(samples[i : i+DefaultFFTSize])
		require.Less(t, s.Level(), blow.DefaultThreshold)
	}
}

func TestSpectrumSmoothingDecaysAfterSound(t *testing.T) {
	s, err := NewSpectrum(DefaultAnalyser())
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		s.Push(noise(uint64(i+1), DefaultFFTSize, 0.5))
		s.Level()
	}
	s.Push(make([]float64, DefaultFFTSize))
	first := s.Level()
	second := s.Level()
	require.Greater(t, first, 0.0)
	require.Less(t, second, first)

	s.Reset()
	require.Zero(t, s.Level())
}

func TestSpectrumToneConcentratesInItsBin(t *testing.T) {
	cfg := DefaultAnalyser()
	cfg.Smoothing = 0
	s, err := NewSpectrum(cfg)
	require.NoError(t, err)

	const bin = 16
	tone := make([]float64, cfg.FFTSize)
	for i := range tone {
		tone[i] = 0.5 * math.Sin(2*math.Pi*bin*float64(i)/float64(cfg.FFTSize))
	}
	s.Push(tone)
	bins := s.Bytes()
	require.Equal(t, uint8(255), bins[bin])
	require.Less(t, bins[bin+20], bins[bin])
}

func TestFramerTimestampsFollowAudioClock(t *testing.T) {
	f, err := newFramer(DefaultFrameConfig(), CaptureSampleRate)
	require.NoError(t, err)

	var got []blow.Sample
	collect := func(s blow.Sample) bool {
		got = append(got, s)
		return true
	}

	// Uneven chunk sizes must not change frame boundaries.
	samples := make([]float64, CaptureSampleRate)
	for i := 0; i < len(samples); {
		n := 123 + i%97
		if i+n > len(samples) {
			n = len(samples) - i
		}
		require.True(t, f.feed(samples[i:i+n], collect))
		i += n
	}

	require.Len(t, got, DefaultFrameRate)
	require.Equal(t, time.Second, got[len(got)-1].At)
	require.Equal(t, time.Duration(266)*time.Second/CaptureSampleRate, got[0].At)
	for i := 1; i < len(got); i++ {
		require.Greater(t, got[i].At, got[i-1].At)
	}
}

func TestFramerStopsWhenEmitDeclines(t *testing.T) {
	f, err := newFramer(DefaultFrameConfig(), CaptureSampleRate)
	require.NoError(t, err)

	calls := 0
	ok := f.feed(make([]float64, CaptureSampleRate), func(blow.Sample) bool {
		calls++
		return calls < 3
	})
	require.False(t, ok)
	require.Equal(t, 3, calls)
}

func TestNewFramerRejectsBadRates(t *testing.T) {
	_, err := newFramer(FrameConfig{FrameRate: 0, Analyser: DefaultAnalyser()}, CaptureSampleRate)
	require.Error(t, err)

	_, err = newFramer(DefaultFrameConfig(), 0)
	require.Error(t, err)
}

func TestFramesFromConfigMatchesDefaults(t *testing.T) {
	require.Equal(t, DefaultFrameConfig(), FramesFromConfig(config.Default().Analyzer))
}
