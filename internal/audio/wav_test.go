package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbright/cakemic/internal/blow"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func pcm16(samples []float64) []byte {
	out := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v*32767)))
	}
	return out
}

// writeFixture records one second of silence followed by one second of loud
// noise through the capture dump path.
func writeFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dumps", "blow.wav")
	dump, err := createWAVDump(path, CaptureSampleRate)
	require.NoError(t, err)

	silence := pcm16(make([]float64, CaptureSampleRate))
	loud := pcm16(noise(3, CaptureSampleRate, 0.5))
	for _, pcm := range [][]byte{silence, loud} {
		for i := 0; i < len(pcm); i += fragmentBytes {
			dump.WritePCM16(pcm[i:min(i+fragmentBytes, len(pcm))])
		}
	}
	require.NoError(t, dump.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	return path
}

func collect(t *testing.T, ch <-chan blow.Sample) []blow.Sample {
	t.Helper()
	var out []blow.Sample
	timeout := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, s)
		case <-timeout:
			t.Fatal("sample stream did not close")
		}
	}
}

func TestReaderSamplerReplaysDump(t *testing.T) {
	defer goleak.VerifyNone(t)

	file, err := os.Open(writeFixture(t))
	require.NoError(t, err)
	defer file.Close()

	sampler := NewReaderSampler(file, ReaderOptions{})
	ch, err := sampler.Start(context.Background())
	require.NoError(t, err)

	samples := collect(t, ch)
	require.NoError(t, sampler.Stop())
	require.NoError(t, sampler.Err())

	require.Len(t, samples, 2*DefaultFrameRate)
	require.Equal(t, 2*time.Second, samples[len(samples)-1].At)
	require.Zero(t, samples[DefaultFrameRate-1].Level)
	require.Greater(t, samples[DefaultFrameRate+1].Level, blow.DefaultThreshold)

	detector := blow.NewDetector(blow.DefaultTuning())
	var events []time.Duration
	for _, s := range samples {
		if detector.Observe(s) {
			events = append(events, s.At)
		}
	}
	require.Len(t, events, 1)
	require.Greater(t, events[0], time.Second)
	require.Less(t, events[0], time.Second+50*time.Millisecond)
}

func TestReaderSamplerStopEndsStream(t *testing.T) {
	defer goleak.VerifyNone(t)

	file, err := os.Open(writeFixture(t))
	require.NoError(t, err)
	defer file.Close()

	sampler := NewReaderSampler(file, ReaderOptions{Realtime: true})
	ch, err := sampler.Start(context.Background())
	require.NoError(t, err)

	<-ch
	require.NoError(t, sampler.Stop())
	require.NoError(t, sampler.Stop())
	collect(t, ch)
}

func TestReaderSamplerRejectsNonWAV(t *testing.T) {
	sampler := NewReaderSampler(bytes.NewReader([]byte("definitely not riff data")), ReaderOptions{})
	_, err := sampler.Start(context.Background())
	require.ErrorIs(t, err, ErrNotWAV)
	require.NoError(t, sampler.Stop())
}

func TestWAVDumpNilIsNoop(t *testing.T) {
	var dump *wavDump
	dump.WritePCM16([]byte{1, 2})
	require.NoError(t, dump.Close())
}

func TestPulseSamplerStopBeforeStart(t *testing.T) {
	sampler := NewPulseSampler(PulseOptions{})
	require.NoError(t, sampler.Stop())
	require.NoError(t, sampler.Stop())
}

func TestPulseSamplerReportsDeviceUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	sampler := NewPulseSampler(PulseOptions{Input: "default", Fallback: "default"})
	_, err := sampler.Start(context.Background())
	require.ErrorIs(t, err, blow.ErrDeviceUnavailable)
	require.NoError(t, sampler.Stop())
}
