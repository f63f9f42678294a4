package melody

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupportedFormat reports a melody file no in-process decoder handles.
var ErrUnsupportedFormat = errors.New("unsupported melody format")

const decodeBlockFrames = 4096

// Clip is mono s16 audio at Rate Hz.
type Clip struct {
	Rate int
	PCM  []int16
}

// Duration is the clip's playing time.
func (c Clip) Duration() time.Duration {
	if c.Rate <= 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(c.Rate)
}

// Decodable reports whether path has an extension DecodeFile handles.
func Decodable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".aif", ".aiff", ".ogg", ".oga", ".mp3":
		return true
	}
	return false
}

// DecodeFile reads a WAV, AIFF, Ogg Vorbis or MP3 file and mixes it down to
// a mono clip at the file's own sample rate.
func DecodeFile(path string) (Clip, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !Decodable(path) {
		return Clip{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open melody file %q: %w", path, err)
	}
	defer f.Close()

	var clip Clip
	switch ext {
	case ".wav":
		clip, err = decodeWAV(f)
	case ".aif", ".aiff":
		clip, err = decodeAIFF(f)
	case ".ogg", ".oga":
		clip, err = decodeVorbis(f)
	case ".mp3":
		clip, err = decodeMP3(f)
	}
	if err != nil {
		return Clip{}, fmt.Errorf("decode melody file %q: %w", path, err)
	}
	if len(clip.PCM) == 0 {
		return Clip{}, fmt.Errorf("decode melody file %q: no audio", path)
	}
	return clip, nil
}

func decodeWAV(r io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("not a WAV file")
	}
	format := dec.Format()
	return decodeIntPCM(format, int(dec.BitDepth), dec.PCMBuffer)
}

func decodeAIFF(r io.ReadSeeker) (Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return Clip{}, errors.New("not an AIFF file")
	}
	dec.ReadInfo()
	format := dec.Format()
	return decodeIntPCM(format, int(dec.BitDepth), dec.PCMBuffer)
}

// decodeIntPCM drains a go-audio style decoder block by block.
func decodeIntPCM(format *goaudio.Format, bitDepth int, read func(*goaudio.IntBuffer) (int, error)) (Clip, error) {
	if format == nil || format.NumChannels < 1 || format.SampleRate <= 0 {
		return Clip{}, errors.New("unsupported layout")
	}
	scale, ok := intScale(bitDepth)
	if !ok {
		return Clip{}, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	channels := format.NumChannels
	buf := &goaudio.IntBuffer{
		Data:           make([]int, decodeBlockFrames*channels),
		Format:         format,
		SourceBitDepth: bitDepth,
	}
	clip := Clip{Rate: format.SampleRate}
	for {
		n, err := read(buf)
		clip.PCM = appendMono(clip.PCM, channels, n, func(i int) float64 {
			return float64(buf.Data[i]) / scale
		})
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			return clip, nil
		}
		if err != nil {
			return Clip{}, err
		}
	}
}

func decodeVorbis(r io.Reader) (Clip, error) {
	samples, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return Clip{}, err
	}
	if format == nil || format.Channels < 1 || format.SampleRate <= 0 {
		return Clip{}, errors.New("unsupported layout")
	}
	pcm := appendMono(nil, format.Channels, len(samples), func(i int) float64 {
		return float64(samples[i])
	})
	return Clip{Rate: format.SampleRate, PCM: pcm}, nil
}

// go-mp3 always yields interleaved stereo s16le.
func decodeMP3(r io.Reader) (Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return Clip{}, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Clip{}, err
	}
	values := len(raw) / 2
	pcm := appendMono(nil, 2, values, func(i int) float64 {
		return float64(int16(uint16(raw[2*i])|uint16(raw[2*i+1])<<8)) / 32768
	})
	return Clip{Rate: dec.SampleRate(), PCM: pcm}, nil
}

// appendMono averages n interleaved values of the given channel count into
// s16 frames. at returns value i scaled to [-1, 1].
func appendMono(dst []int16, channels, n int, at func(i int) float64) []int16 {
	frames := n / channels
	for f := 0; f < frames; f++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += at(f*channels + c)
		}
		dst = append(dst, toS16(sum/float64(channels)))
	}
	return dst
}

func toS16(v float64) int16 {
	v = math.Max(-1, math.Min(1, v))
	return int16(math.Round(v * 32767))
}

func intScale(bitDepth int) (float64, bool) {
	switch bitDepth {
	case 8:
		return 128, true
	case 16:
		return 32768, true
	case 24:
		return 8388608, true
	case 32:
		return 2147483648, true
	}
	return 0, false
}
