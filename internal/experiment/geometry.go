package experiment

import (
	"errors"
	"fmt"
	"math"
)

// RingSize is the number of targets laid out around the ring. It is odd, so the
// "opposite" target is only approximately across the circle.
const RingSize = 9

// randomStartRange bounds the per-block alternation offset.
const randomStartRange = 10

var ErrDegenerateGeometry = errors.New("degenerate target geometry")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Target is one circle of the ring. Hit is per-trial render state, Marked stays
// set for the rest of the block once the target has been acquired.
type Target struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Hit    bool    `json:"-"`
	Marked bool    `json:"-"`
}

func (t Target) Center() Point { return Point{X: t.X, Y: t.Y} }

// RingRadius returns the circle radius for which the chord between a target and
// the one floor(N/2) positions away equals the amplitude a.
func RingRadius(a float64) float64 {
	k := RingSize / 2
	angleToOpposite := 2 * math.Pi * float64(k) / RingSize
	return a / (2 * math.Sin(angleToOpposite/2))
}

// RingTargets places RingSize targets of diameter w evenly around the canvas
// center. It is deterministic for a given (a, w, canvasW, canvasH).
func RingTargets(a, w float64, canvasW, canvasH int) ([]Target, error) {
	if a <= 0 || w <= 0 {
		return nil, fmt.Errorf("%w: amplitude %v, width %v", ErrDegenerateGeometry, a, w)
	}
	return layoutRing(a, w, canvasW, canvasH), nil
}

// layoutRing places the targets for a positive amplitude and width.
func layoutRing(a, w float64, canvasW, canvasH int) []Target {
	cx := float64(canvasW) / 2
	cy := float64(canvasH) / 2
	r := RingRadius(a)
	step := 2 * math.Pi / RingSize

	targets := make([]Target, 0, RingSize)
	for i := 0; i < RingSize; i++ {
		angle := float64(i) * step
		targets = append(targets, Target{
			X:      cx + r*math.Cos(angle),
			Y:      cy + r*math.Sin(angle),
			Radius: w / 2,
		})
	}
	return targets
}

// ActiveIndex is the ring position of the target for a trial. The step of 5 is
// coprime with 9, so a block visits every position before repeating.
func ActiveIndex(trial, randomStart int) int {
	return (trial + randomStart) * 5 % RingSize
}

// PreTrialIndex is the position that precedes trial 0 in the alternation.
func PreTrialIndex(randomStart int) int {
	return ActiveIndex(RingSize-1, randomStart)
}

// IndexOfDifficulty is the Fitts' index of difficulty log2(2A/W).
func IndexOfDifficulty(a, w float64) float64 {
	return math.Log2(2 * a / w)
}

// StartButton is the circular control pressed to begin the experiment and each condition.
type StartButton struct {
	X      float64
	Y      float64
	Radius float64
}

func (b StartButton) Contains(p Point) bool {
	return p.Dist(Point{X: b.X, Y: b.Y}) <= b.Radius
}
