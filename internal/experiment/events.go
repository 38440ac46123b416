package experiment

import "time"

type EventKind int

const (
	ParticipantStarted EventKind = iota
	PreTrialCompleted
	TrialScored
	BlockFinished
	ConditionFinished
	ExperimentEnded
)

func (k EventKind) String() string {
	switch k {
	case ParticipantStarted:
		return "participant_started"
	case PreTrialCompleted:
		return "pre_trial_completed"
	case TrialScored:
		return "trial_scored"
	case BlockFinished:
		return "block_finished"
	case ConditionFinished:
		return "condition_finished"
	case ExperimentEnded:
		return "experiment_ended"
	}
	return "unknown"
}

// Event describes a step of the experiment's progression. Record is set for
// PreTrialCompleted and TrialScored.
type Event struct {
	Kind           EventKind
	At             time.Time
	ConditionIndex int
	BlockIndex     int
	TrialIndex     int
	Record         *TrialRecord
}

// Listener receives events synchronously, on the goroutine that drives the Session.
type Listener func(Event)
