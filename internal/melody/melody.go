// Package melody plays the celebration tune.
package melody

import (
	"context"
	"math"
	"time"
)

// Player starts and stops the celebration tune. Play must not block.
type Player interface {
	Play(ctx context.Context)
	Stop()
}

// Note is one tone of the phrase.
type Note struct {
	FrequencyHz float64
	Duration    time.Duration
}

// Birthday is the opening phrase of "Happy Birthday".
var Birthday = []Note{
	{FrequencyHz: 261.63, Duration: 500 * time.Millisecond},
	{FrequencyHz: 261.63, Duration: 500 * time.Millisecond},
	{FrequencyHz: 293.66, Duration: time.Second},
	{FrequencyHz: 261.63, Duration: time.Second},
	{FrequencyHz: 349.23, Duration: time.Second},
	{FrequencyHz: 329.63, Duration: 2 * time.Second},
}

const (
	sampleRate = 16000
	startGain  = 0.1
	endGain    = 0.01
)

// Nop is a Player that stays silent.
type Nop struct{}

func (Nop) Play(context.Context) {}
func (Nop) Stop()                {}

// Synthesize renders notes back to back as mono s16 at 16 kHz. Each note's
// gain falls exponentially from 0.1 to 0.01 across its duration.
func Synthesize(notes []Note) []int16 {
	total := 0
	for _, note := range notes {
		total += samplesForDuration(note.Duration)
	}
	pcm := make([]int16, 0, total)
	for _, note := range notes {
		pcm = append(pcm, synthesizeNote(note)...)
	}
	return pcm
}

func synthesizeNote(note Note) []int16 {
	n := samplesForDuration(note.Duration)
	if n <= 0 || note.FrequencyHz <= 0 {
		return nil
	}

	ramp := sampleRate / 200 // 5ms
	if ramp > n/10 {
		ramp = n / 10
	}
	if ramp < 1 {
		ramp = 1
	}

	pcm := make([]int16, n)
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n)
		gain := startGain * math.Pow(endGain/startGain, progress)

		envelope := 1.0
		if i < ramp {
			envelope = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			envelope = math.Min(envelope, float64(tail)/float64(ramp))
		}

		t := float64(i) / sampleRate
		sample := math.Sin(2 * math.Pi * note.FrequencyHz * t)
		pcm[i] = int16(math.Round(sample * gain * envelope * 32767))
	}
	return pcm
}

func samplesForDuration(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * sampleRate))
}
