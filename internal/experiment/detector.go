package experiment

// Detector tracks whether the cursor is inside the active target and inside its
// buffer zone, appending enter and exit times to the trial record on every
// change. A new trial starts from a fresh Detector.
type Detector struct {
	inTarget bool
	inBuffer bool
}

func (d *Detector) Reset() { *d = Detector{} }

func (d *Detector) InTarget() bool { return d.inTarget }
func (d *Detector) InBuffer() bool { return d.inBuffer }

// Observe feeds one cursor sample. buffer is the extra radius of the buffer zone
// and s.Time is in milliseconds since movement start.
func (d *Detector) Observe(target *Target, buffer float64, s PositionSample, rec *TrialRecord) {
	dist := Point{X: s.X, Y: s.Y}.Dist(target.Center())

	if dist < target.Radius+buffer {
		target.Hit = true
		if !d.inBuffer {
			d.inBuffer = true
			rec.ReachingTimes = append(rec.ReachingTimes, s.Time)
			if rec.ReachingPosition == nil {
				first := s
				rec.ReachingPosition = &first
			}
		}
	} else {
		target.Hit = false
		if d.inBuffer {
			d.inBuffer = false
			rec.OutTimes = append(rec.OutTimes, s.Time)
		}
	}

	if dist < target.Radius {
		if !d.inTarget {
			d.inTarget = true
			rec.TargetEnterTimes = append(rec.TargetEnterTimes, s.Time)
		}
	} else if d.inTarget {
		d.inTarget = false
		rec.TargetExitTimes = append(rec.TargetExitTimes, s.Time)
	}
}
