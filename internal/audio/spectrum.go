package audio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analyser defaults match a browser AnalyserNode.
const (
	DefaultFFTSize   = 256
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100.0
	DefaultMaxDB     = -30.0
)

// AnalyserConfig shapes the byte frequency spectrum.
type AnalyserConfig struct {
	FFTSize   int
	Smoothing float64
	MinDB     float64
	MaxDB     float64
}

// DefaultAnalyser returns the stock analyser settings.
func DefaultAnalyser() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:   DefaultFFTSize,
		Smoothing: DefaultSmoothing,
		MinDB:     DefaultMinDB,
		MaxDB:     DefaultMaxDB,
	}
}

// Validate checks the analyser bounds.
func (c AnalyserConfig) Validate() error {
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size %d must be a power of two in [32, 32768]", c.FFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing %.3f must be in [0, 1)", c.Smoothing)
	}
	if c.MinDB >= c.MaxDB {
		return fmt.Errorf("min dB %.1f must be below max dB %.1f", c.MinDB, c.MaxDB)
	}
	return nil
}

// Spectrum keeps the most recent FFTSize samples and renders the smoothed
// byte frequency data an analyser would report for them.
type Spectrum struct {
	cfg    AnalyserConfig
	fft    *fourier.FFT
	window []float64

	ring []float64
	pos  int

	frame    []float64
	coeff    []complex128
	smoothed []float64
	bins     []uint8
}

// NewSpectrum allocates an analyser for cfg.
func NewSpectrum(cfg AnalyserConfig) (*Spectrum, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.FFTSize
	return &Spectrum{
		cfg:      cfg,
		fft:      fourier.NewFFT(n),
		window:   blackman(n),
		ring:     make([]float64, n),
		frame:    make([]float64, n),
		coeff:    make([]complex128, n/2+1),
		smoothed: make([]float64, n/2),
		bins:     make([]uint8, n/2),
	}, nil
}

// Push appends normalized samples in [-1, 1].
func (s *Spectrum) Push(samples []float64) {
	for _, v := range samples {
		s.ring[s.pos] = v
		s.pos = (s.pos + 1) % len(s.ring)
	}
}

// Bytes computes one analysis frame and returns FFTSize/2 bins in [0, 255].
// Smoothing carries over between calls, so call it once per frame. The
// returned slice is reused by the next call.
func (s *Spectrum) Bytes() []uint8 {
	n := len(s.ring)
	for i := 0; i < n; i++ {
		s.frame[i] = s.ring[(s.pos+i)%n] * s.window[i]
	}
	s.coeff = s.fft.Coefficients(s.coeff, s.frame)

	tau := s.cfg.Smoothing
	scale := 255 / (s.cfg.MaxDB - s.cfg.MinDB)
	for k := range s.smoothed {
		mag := cmplxAbs(s.coeff[k]) / float64(n)
		v := tau*s.smoothed[k] + (1-tau)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		s.smoothed[k] = v

		db := 20 * math.Log10(v)
		scaled := math.Floor(scale * (db - s.cfg.MinDB))
		switch {
		case math.IsNaN(scaled) || scaled < 0:
			s.bins[k] = 0
		case scaled > 255:
			s.bins[k] = 255
		default:
			s.bins[k] = uint8(scaled)
		}
	}
	return s.bins
}

// Level computes one frame and returns the mean bin value.
func (s *Spectrum) Level() float64 {
	bins := s.Bytes()
	var sum float64
	for _, b := range bins {
		sum += float64(b)
	}
	return sum / float64(len(bins))
}

// Reset clears the sample window and smoothing history.
func (s *Spectrum) Reset() {
	clear(s.ring)
	clear(s.smoothed)
	s.pos = 0
}

func blackman(n int) []float64 {
	const (
		a0 = 0.42
		a1 = 0.5
		a2 = 0.08
	)
	w := make([]float64, n)
	for i := range w {
		x := 2 * math.Pi * float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(x) + a2*math.Cos(2*x)
	}
	return w
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
