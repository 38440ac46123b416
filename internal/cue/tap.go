package cue

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// levelTap passes audio through to the speaker and keeps the most recent
// frames so the HUD can tell whether a cue is sounding.
type levelTap struct {
	src beep.Streamer

	mu     sync.RWMutex
	frames [][2]float64
	head   int // next write position
	filled int
}

func newLevelTap(src beep.Streamer, capacity int) *levelTap {
	return &levelTap{
		src:    src,
		frames: make([][2]float64, capacity),
	}
}

func (t *levelTap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.src.Stream(samples)
	if n == 0 {
		return n, ok
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	in := samples[:n]
	if len(in) > len(t.frames) {
		in = in[len(in)-len(t.frames):]
	}
	for len(in) > 0 {
		c := copy(t.frames[t.head:], in)
		in = in[c:]
		t.head = (t.head + c) % len(t.frames)
	}
	t.filled = min(t.filled+n, len(t.frames))
	return n, ok
}

func (t *levelTap) Err() error { return t.src.Err() }

// snapshot returns up to the last n frames, oldest first.
func (t *levelTap) snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n = min(n, t.filled)
	out := make([][2]float64, n)
	start := (t.head - n + len(t.frames)) % max(len(t.frames), 1)
	c := copy(out, t.frames[start:])
	copy(out[c:], t.frames[:n-c])
	return out
}

// level is the RMS of the last n frames across both channels.
func (t *levelTap) level(n int) float64 {
	frames := t.snapshot(n)
	if len(frames) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range frames {
		sum += f[0]*f[0] + f[1]*f[1]
	}
	return math.Sqrt(sum / float64(2*len(frames)))
}
