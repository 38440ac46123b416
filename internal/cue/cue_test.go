package cue

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iburimskiy/fitts-ring/internal/config"
	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

func drainStreamer(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func TestToneLengthAndShape(t *testing.T) {
	sr := beep.SampleRate(44100)
	samples := drainStreamer(Tone(sr, 440, 100*time.Millisecond))
	require.Len(t, samples, sr.N(100*time.Millisecond))

	assert.Zero(t, samples[0][0])
	assert.InDelta(t, 0, samples[len(samples)-1][0], 1e-9)

	peak := 0.0
	for _, s := range samples {
		assert.Equal(t, s[0], s[1])
		peak = math.Max(peak, math.Abs(s[0]))
	}
	assert.LessOrEqual(t, peak, toneGain)
	assert.Greater(t, peak, toneGain*0.9)
}

func TestToneZeroDuration(t *testing.T) {
	assert.Empty(t, drainStreamer(Tone(44100, 440, 0)))
}

func TestLevelTapSnapshotOrder(t *testing.T) {
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{float64(i), 0}
		}
		return len(samples), true
	})
	tap := newLevelTap(src, 4)

	buf := make([][2]float64, 6)
	n, ok := tap.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 6, n)

	snap := tap.snapshot(3)
	assert.Equal(t, [][2]float64{{3, 0}, {4, 0}, {5, 0}}, snap)
	assert.Len(t, tap.snapshot(10), 4)
}

func TestLevelTapPartialFill(t *testing.T) {
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{1, 1}
		}
		return len(samples), true
	})
	tap := newLevelTap(src, 8)
	assert.Empty(t, tap.snapshot(4))
	assert.Zero(t, tap.level(4))

	_, _ = tap.Stream(make([][2]float64, 3))
	assert.Len(t, tap.snapshot(8), 3)
	assert.InDelta(t, 1.0, tap.level(8), 1e-9)

	_, _ = tap.Stream(make([][2]float64, 7))
	assert.Len(t, tap.snapshot(8), 8)
}

func TestLevelTapSilenceAfterCue(t *testing.T) {
	mixer := &beep.Mixer{}
	tap := newLevelTap(mixer, 1024)
	buf := make([][2]float64, 1024)

	_, _ = tap.Stream(buf)
	assert.Zero(t, tap.level(1024))

	mixer.Add(Tone(44100, 440, 10*time.Millisecond))
	_, _ = tap.Stream(buf)
	assert.Greater(t, tap.level(1024), 0.05)

	_, _ = tap.Stream(buf)
	assert.Zero(t, tap.level(1024))
}

func TestNewSynthesizesTone(t *testing.T) {
	p, err := New(config.CueCfg{Enabled: true, Frequency: 880, Duration: 150 * time.Millisecond}, zap.NewNop())
	require.NoError(t, err)
	assert.InDelta(t, float64(150*time.Millisecond), float64(p.Duration()), float64(time.Millisecond))
	assert.Zero(t, p.Level())

	// not started: playing is a no-op
	p.Handle(experiment.Event{Kind: experiment.BlockFinished})
	assert.Zero(t, p.mixer.Len())
}

func TestNewLoadsAndResamplesWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ding.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	srcRate := beep.SampleRate(22050)
	format := beep.Format{SampleRate: srcRate, NumChannels: 2, Precision: 2}
	require.NoError(t, wav.Encode(f, Tone(srcRate, 440, 200*time.Millisecond), format))
	require.NoError(t, f.Close())

	p, err := New(config.CueCfg{Enabled: true, File: path}, zap.NewNop())
	require.NoError(t, err)
	assert.InDelta(t, float64(200*time.Millisecond), float64(p.Duration()), float64(5*time.Millisecond))
}

func TestNewRejectsBadFiles(t *testing.T) {
	_, err := New(config.CueCfg{File: filepath.Join(t.TempDir(), "missing.wav")}, zap.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "cue.ogg")
	require.NoError(t, os.WriteFile(path, []byte("OggS"), 0o644))
	_, err = New(config.CueCfg{File: path}, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}
