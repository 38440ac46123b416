package cue

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

const (
	toneGain = 0.4
	toneFade = 5 * time.Millisecond
)

// Tone is a sine wave of freq Hz lasting d, with short linear fades at both ends
// to avoid clicks.
func Tone(sr beep.SampleRate, freq float64, d time.Duration) beep.Streamer {
	total := sr.N(d)
	fade := min(sr.N(toneFade), total/2)
	pos := 0

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= total {
			return 0, false
		}
		n := 0
		for i := range samples {
			if pos >= total {
				break
			}
			env := 1.0
			switch {
			case fade > 0 && pos < fade:
				env = float64(pos) / float64(fade)
			case fade > 0 && total-pos <= fade:
				env = float64(total-pos-1) / float64(fade)
			}
			v := toneGain * env * math.Sin(2*math.Pi*freq*float64(pos)/float64(sr))
			samples[i] = [2]float64{v, v}
			pos++
			n++
		}
		return n, true
	})
}
