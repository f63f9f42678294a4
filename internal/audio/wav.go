package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rbright/cakemic/internal/blow"
)

// ErrNotWAV reports input that is not a RIFF/WAVE PCM file.
var ErrNotWAV = errors.New("not a PCM WAV file")

const readerBlockFrames = 2048

// ReaderOptions configures a WAV replay sampler.
type ReaderOptions struct {
	Frames FrameConfig
	// Realtime paces samples to the audio clock instead of emitting them as
	// fast as the consumer reads.
	Realtime bool
}

// ReaderSampler implements blow.Sampler over a recorded WAV file.
type ReaderSampler struct {
	r    io.ReadSeeker
	opts ReaderOptions

	mu      sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	stopped bool
	err     error
}

// NewReaderSampler wraps r. The caller keeps ownership of r.
func NewReaderSampler(r io.ReadSeeker, opts ReaderOptions) *ReaderSampler {
	if opts.Frames.FrameRate == 0 {
		opts.Frames = DefaultFrameConfig()
	}
	return &ReaderSampler{r: r, opts: opts, stopCh: make(chan struct{})}
}

// Start validates the WAV header and streams loudness samples until the file
// ends, Stop is called, or ctx is cancelled. The channel is closed at the end.
func (s *ReaderSampler) Start(ctx context.Context) (<-chan blow.Sample, error) {
	dec := wav.NewDecoder(s.r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}
	format := dec.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: unsupported layout", ErrNotWAV)
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth != 8 && bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrNotWAV, bitDepth)
	}

	frames, err := newFramer(s.opts.Frames, format.SampleRate)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, errors.New("sampler stopped")
	}
	out := make(chan blow.Sample, 16)
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	go s.pump(ctx, dec, format, bitDepth, frames, out, done)
	return out, nil
}

func (s *ReaderSampler) pump(ctx context.Context, dec *wav.Decoder, format *goaudio.Format, bitDepth int, frames *framer, out chan<- blow.Sample, done chan<- struct{}) {
	defer close(done)
	defer close(out)

	channels := format.NumChannels
	scale := fullScale(bitDepth)
	buf := &goaudio.IntBuffer{
		Data:           make([]int, readerBlockFrames*channels),
		Format:         format,
		SourceBitDepth: bitDepth,
	}
	mono := make([]float64, readerBlockFrames)
	begin := time.Now()

	emit := func(sample blow.Sample) bool {
		if s.opts.Realtime {
			if !s.sleepUntil(ctx, begin.Add(sample.At)) {
				return false
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-s.stopCh:
			return false
		case out <- sample:
			return true
		}
	}

	for {
		n, err := dec.PCMBuffer(buf)
		if n > 0 {
			count := n / channels
			for i := 0; i < count; i++ {
				var sum float64
				for c := 0; c < channels; c++ {
					sum += float64(buf.Data[i*channels+c])
				}
				mono[i] = sum / float64(channels) / scale
			}
			if !frames.feed(mono[:count], emit) {
				return
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			s.setErr(fmt.Errorf("decode wav: %w", err))
			return
		}
		if n == 0 || err != nil {
			return
		}
	}
}

func (s *ReaderSampler) sleepUntil(ctx context.Context, deadline time.Time) bool {
	wait := time.Until(deadline)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (s *ReaderSampler) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Err returns the decode error that ended the stream early, if any.
func (s *ReaderSampler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop ends the stream and waits for the reader goroutine. Idempotent.
func (s *ReaderSampler) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	return nil
}

func fullScale(bitDepth int) float64 {
	switch bitDepth {
	case 8:
		return 128
	case 24:
		return 8388608
	case 32:
		return 2147483648
	default:
		return 32768
	}
}

// wavDump appends captured s16 mono PCM to a WAV file. A nil dump discards.
type wavDump struct {
	file *os.File
	enc  *wav.Encoder
	buf  *goaudio.IntBuffer
	err  error
}

func createWAVDump(path string, sampleRate int) (*wavDump, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}
	return &wavDump{
		file: file,
		enc:  wav.NewEncoder(file, sampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}, nil
}

// WritePCM16 appends little-endian s16 samples. The first error sticks and
// later writes are dropped.
func (d *wavDump) WritePCM16(pcm []byte) {
	if d == nil || d.err != nil {
		return
	}
	n := len(pcm) / 2
	if cap(d.buf.Data) < n {
		d.buf.Data = make([]int, n)
	}
	d.buf.Data = d.buf.Data[:n]
	for i := 0; i < n; i++ {
		d.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	d.err = d.enc.Write(d.buf)
}

// Close finalizes the WAV header.
func (d *wavDump) Close() error {
	if d == nil {
		return nil
	}
	err := d.enc.Close()
	if cerr := d.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if d.err != nil {
		return fmt.Errorf("write dump: %w", d.err)
	}
	return err
}
