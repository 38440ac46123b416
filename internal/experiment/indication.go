package experiment

import (
	"math"
	"time"
)

// minValidityRadius is the smallest distance gate, in pixels, for a deliberate indication.
const minValidityRadius = 40

// IndicationEvent is a press or release of the selection control, with the
// cursor position at the moment it happened.
type IndicationEvent struct {
	Method IndicationMethod
	X      float64
	Y      float64
	At     time.Time
}

func (e IndicationEvent) Pos() Point { return Point{X: e.X, Y: e.Y} }

// ValidityThreshold is the distance under which an indication counts as aimed at the target.
func ValidityThreshold(radius float64) float64 {
	return math.Max(radius*3, minValidityRadius)
}

// EvaluateStage scores one press or release against the target.
func EvaluateStage(target Target, buffer float64, pos Point, t float64) Stage {
	d := pos.Dist(target.Center())
	return Stage{
		T:        t,
		X:        pos.X,
		Y:        pos.Y,
		Distance: d,
		Valid:    d < ValidityThreshold(target.Radius),
		InTarget: d <= target.Radius,
		InBuffer: d <= target.Radius+buffer,
	}
}

// Resolution is the outcome of a press/release pair.
type Resolution struct {
	Discarded    bool
	Success      bool
	SuccessDown  bool
	SuccessUp    bool
	InsideBuffer bool
}

// Resolve decides a press/release pair. When neither stage passed the validity
// gate the attempt is discarded. Otherwise each stage is scored on its own, so a
// trial succeeds when either the press or the release landed inside the target.
func Resolve(down, up Stage) Resolution {
	if !down.Valid && !up.Valid {
		return Resolution{Discarded: true}
	}
	return Resolution{
		Success:      down.InTarget || up.InTarget,
		SuccessDown:  down.InTarget,
		SuccessUp:    up.InTarget,
		InsideBuffer: down.InBuffer || up.InBuffer,
	}
}

// apply copies the stages and outcome into the record.
func (res Resolution) apply(rec *TrialRecord, down, up Stage) {
	rec.IndicationDown = &down
	rec.IndicationUp = &up
	rec.ClickDuration = up.T - down.T
	rec.ConfirmationTime = up.T
	rec.Success = res.Success
	rec.SuccessDown = res.SuccessDown
	rec.SuccessUp = res.SuccessUp
	rec.InsideBuffer = res.InsideBuffer
}
