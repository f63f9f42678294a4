package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	// CaptureSampleRate is the record stream rate in Hz.
	CaptureSampleRate = 16000
	// fragmentBytes asks Pulse for 20ms of mono s16 per write.
	fragmentBytes = CaptureSampleRate / 50 * 2
	pcmBacklog    = 64
)

// Capture is a live mono s16 record stream from one microphone. Buffers the
// consumer cannot keep up with are dropped rather than stalling Pulse.
type Capture struct {
	device Device
	client *pulse.Client
	stream *pulse.RecordStream

	pcm  chan []byte
	quit chan struct{}

	mu      sync.Mutex
	closed  bool
	writers sync.WaitGroup
	dropped atomic.Int64
}

func newCapture(device Device) *Capture {
	return &Capture{
		device: device,
		pcm:    make(chan []byte, pcmBacklog),
		quit:   make(chan struct{}),
	}
}

// OpenCapture starts recording from device. The capture closes itself when
// ctx ends.
func OpenCapture(ctx context.Context, device Device) (*Capture, error) {
	client, err := connect()
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	c := newCapture(device)
	c.client = client
	stream, err := client.NewRecord(
		pulse.NewWriter(pcmSink{c}, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(CaptureSampleRate),
		pulse.RecordBufferFragmentSize(fragmentBytes),
		pulse.RecordMediaName("cakemic blow detection"),
	)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.quit:
		}
	}()
	return c, nil
}

// Device is the microphone being recorded.
func (c *Capture) Device() Device {
	return c.device
}

// PCM delivers little-endian s16 buffers. It is closed by Close.
func (c *Capture) PCM() <-chan []byte {
	return c.pcm
}

// Dropped counts buffers discarded because PCM was full.
func (c *Capture) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops recording and closes PCM. It is idempotent.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.quit)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	c.writers.Wait()
	close(c.pcm)
	return nil
}

func (c *Capture) write(buf []byte) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, io.EOF
	}
	c.writers.Add(1)
	c.mu.Unlock()
	defer c.writers.Done()

	if len(buf) == 0 {
		return 0, nil
	}
	select {
	case c.pcm <- append([]byte(nil), buf...):
	default:
		c.dropped.Add(1)
	}
	return len(buf), nil
}

// pcmSink hands Pulse record buffers to a Capture.
type pcmSink struct {
	c *Capture
}

func (s pcmSink) Write(buf []byte) (int, error) {
	return s.c.write(buf)
}
