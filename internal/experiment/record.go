package experiment

import (
	"math"
	"time"
)

// PositionSample is a cursor position with its time in milliseconds since movement start.
type PositionSample struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time float64 `json:"time"`
}

// Stage is one half (press or release) of an acquisition attempt.
type Stage struct {
	T        float64 `json:"t"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Distance float64 `json:"distance"`
	Valid    bool    `json:"valid"`
	InTarget bool    `json:"inTarget"`
	InBuffer bool    `json:"inBuffer"`
}

// TrialRecord accumulates everything observed during one acquisition attempt.
type TrialRecord struct {
	ConditionIndex int              `json:"conditionIndex"`
	BlockIndex     int              `json:"blockIndex"`
	TrialIndex     int              `json:"trialIndex"`
	IsFirstTrial   bool             `json:"isFirstTrial"`
	FeedbackMode   FeedbackMode     `json:"feedbackMode"`
	Buffer         float64          `json:"buffer"`
	Indication     IndicationMethod `json:"indication"`

	A           float64 `json:"A"`
	W           float64 `json:"W"`
	ID          float64 `json:"ID"`
	TargetIndex int     `json:"targetIndex"`
	TargetX     float64 `json:"targetX"`
	TargetY     float64 `json:"targetY"`

	MovementStartTime time.Time        `json:"movementStartTime"`
	StartPosition     Point            `json:"startPosition"`
	CursorPositions   []PositionSample `json:"cursorPositions"`
	IntervalPositions []PositionSample `json:"cursorPositionsInterval"`

	// Buffer zone (radius + buffer) entries and exits.
	ReachingTimes    []float64       `json:"reachingTimes"`
	OutTimes         []float64       `json:"outTimes"`
	ReachingPosition *PositionSample `json:"reachingPosition,omitempty"`
	// Strict target (radius only) entries and exits.
	TargetEnterTimes []float64 `json:"targetEnterTimes"`
	TargetExitTimes  []float64 `json:"targetExitTimes"`

	IndicationDown   *Stage  `json:"indicationDown,omitempty"`
	IndicationUp     *Stage  `json:"indicationUp,omitempty"`
	ClickDuration    float64 `json:"clickDuration"`
	ConfirmationTime float64 `json:"confirmationTime"`

	Success      bool `json:"success"`
	SuccessDown  bool `json:"successDown"`
	SuccessUp    bool `json:"successUp"`
	InsideBuffer bool `json:"insideBuffer"`
}

// ReachingTime returns the first buffer entry time, if any.
func (r *TrialRecord) ReachingTime() (float64, bool) {
	if len(r.ReachingTimes) == 0 {
		return 0, false
	}
	return r.ReachingTimes[0], true
}

// msSince converts t to milliseconds relative to start.
func msSince(start, t time.Time) float64 {
	return float64(t.Sub(start)) / float64(time.Millisecond)
}

// Participant is the per-session document handed to the Store. Screen, zoom
// and platform values come from outside the core and are passed through untouched.
type Participant struct {
	ID            string            `json:"id"`
	RecruitmentID string            `json:"recruitmentId,omitempty"`
	StartedAt     time.Time         `json:"startedAt"`
	EndedAt       *time.Time        `json:"endedAt,omitempty"`
	Completed     bool              `json:"completed"`
	OrderIndex    int               `json:"orderIndex"`
	Conditions    []Condition       `json:"feedbackConditions"`
	ScreenWidth   int               `json:"screenWidth"`
	ScreenHeight  int               `json:"screenHeight"`
	Zoom          float64           `json:"zoom"`
	Platform      map[string]string `json:"platform,omitempty"`
}

// SpeedProfile returns, for each consecutive pair of samples, the time since the
// first sample (ms) and the speed in px/s. Pairs with no elapsed time are skipped.
func SpeedProfile(positions []PositionSample) (times, speeds []float64) {
	for i := 1; i < len(positions); i++ {
		dt := positions[i].Time - positions[i-1].Time
		if dt <= 0 {
			continue
		}
		d := math.Hypot(positions[i].X-positions[i-1].X, positions[i].Y-positions[i-1].Y)
		speeds = append(speeds, d/dt*1000)
		times = append(times, positions[i].Time-positions[0].Time)
	}
	return times, speeds
}

func PeakSpeed(positions []PositionSample) float64 {
	_, speeds := SpeedProfile(positions)
	peak := 0.0
	for _, s := range speeds {
		peak = math.Max(peak, s)
	}
	return peak
}
