package experiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingTargets(t *testing.T) {
	cases := []struct {
		a, w float64
	}{
		{238, 21},
		{336, 42},
		{672, 84},
		{10, 1},
	}

	for _, c := range cases {
		targets, err := RingTargets(c.a, c.w, 1280, 800)
		require.NoError(t, err)
		require.Len(t, targets, RingSize)

		r := RingRadius(c.a)
		center := Point{X: 640, Y: 400}
		for i, tg := range targets {
			assert.InDelta(t, r, tg.Center().Dist(center), 1e-9)
			assert.Equal(t, c.w/2, tg.Radius)

			angle := math.Atan2(tg.Y-center.Y, tg.X-center.X)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			want := float64(i) * 2 * math.Pi / RingSize
			assert.InDelta(t, want, angle, 1e-9, "target %d", i)
		}

		// the chord to the floor(N/2)-th neighbour is the amplitude
		assert.InDelta(t, c.a, targets[0].Center().Dist(targets[RingSize/2].Center()), 1e-9)
	}
}

func TestRingTargetsDeterministic(t *testing.T) {
	first, err := RingTargets(336, 42, 1024, 768)
	require.NoError(t, err)
	second, err := RingTargets(336, 42, 1024, 768)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRingTargetsDegenerate(t *testing.T) {
	for _, c := range [][2]float64{{0, 10}, {100, 0}, {-5, 10}, {100, -1}} {
		_, err := RingTargets(c[0], c[1], 800, 600)
		assert.ErrorIs(t, err, ErrDegenerateGeometry)
	}
}

func TestActiveIndexVisitsWholeRing(t *testing.T) {
	for start := 0; start < randomStartRange; start++ {
		seen := map[int]bool{}
		for trial := 0; trial < RingSize; trial++ {
			idx := ActiveIndex(trial, start)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, RingSize)
			seen[idx] = true
		}
		assert.Len(t, seen, RingSize, "randomStart %d", start)
	}
}

func TestActiveIndexLiteral(t *testing.T) {
	assert.Equal(t, 0, ActiveIndex(0, 0))
	assert.Equal(t, 5, ActiveIndex(1, 0))
	assert.Equal(t, 1, ActiveIndex(2, 0))
	assert.Equal(t, 0, ActiveIndex(0, 9))
	assert.Equal(t, 8, ActiveIndex(3, 4))
}

func TestPreTrialIndexPrecedesFirstTrial(t *testing.T) {
	for start := 0; start < randomStartRange; start++ {
		pre := PreTrialIndex(start)
		assert.Equal(t, ActiveIndex(0, start), (pre+5)%RingSize)
		assert.NotEqual(t, ActiveIndex(0, start), pre)
	}
}

func TestIndexOfDifficulty(t *testing.T) {
	assert.InDelta(t, 4.5025, IndexOfDifficulty(238, 21), 1e-4)
	assert.InDelta(t, 5.0, IndexOfDifficulty(336, 21), 1e-9)
}

func TestStartButtonContains(t *testing.T) {
	b := StartButton{X: 100, Y: 100, Radius: 50}
	assert.True(t, b.Contains(Point{X: 100, Y: 100}))
	assert.True(t, b.Contains(Point{X: 150, Y: 100}))
	assert.False(t, b.Contains(Point{X: 151, Y: 100}))
}
