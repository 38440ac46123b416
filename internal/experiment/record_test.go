package experiment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpeedProfile(t *testing.T) {
	positions := []PositionSample{
		{X: 0, Y: 0, Time: 0},
		{X: 3, Y: 4, Time: 10},
		{X: 3, Y: 4, Time: 10}, // duplicate timestamp
		{X: 3, Y: 24, Time: 20},
		{X: 3, Y: 24, Time: 40},
	}
	times, speeds := SpeedProfile(positions)
	assert.Equal(t, []float64{10, 20, 40}, times)
	assert.InDeltaSlice(t, []float64{500, 2000, 0}, speeds, 1e-9)
	assert.InDelta(t, 2000.0, PeakSpeed(positions), 1e-9)
}

func TestSpeedProfileTooShort(t *testing.T) {
	times, speeds := SpeedProfile([]PositionSample{{X: 1, Y: 1}})
	assert.Empty(t, times)
	assert.Empty(t, speeds)
	assert.Zero(t, PeakSpeed(nil))
}

func TestReachingTime(t *testing.T) {
	rec := &TrialRecord{}
	_, ok := rec.ReachingTime()
	assert.False(t, ok)

	rec.ReachingTimes = []float64{120, 300}
	rt, ok := rec.ReachingTime()
	assert.True(t, ok)
	assert.Equal(t, 120.0, rt)
}

func TestMsSince(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 1500.0, msSince(t0, t0.Add(1500*time.Millisecond)))
	assert.Equal(t, 0.25, msSince(t0, t0.Add(250*time.Microsecond)))
}
