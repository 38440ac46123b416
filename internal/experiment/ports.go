package experiment

// Store persists participant and trial documents. Calls are fire-and-forget:
// an implementation handles and logs its own failures and must not block.
type Store interface {
	InitializeParticipant(p Participant)
	CompleteParticipant(participantID string)
	SaveTrial(rec TrialRecord, participantID string)
	SavePreTrial(rec TrialRecord, participantID string)
}

// View is a read-only snapshot of what should be on screen.
type View struct {
	Phase       Phase
	Targets     []Target
	ActiveIndex int
	Feedback    FeedbackMode
	Indication  IndicationMethod
	PreTrial    bool
	StartButton StartButton

	ConditionIndex int
	ConditionCount int
	BlockIndex     int
	BlockCount     int
	TrialIndex     int
	Completed      int
	Total          int

	LastTrial *TrialRecord
}

// Renderer redraws from a View. It owns no experiment state.
type Renderer interface {
	Render(v View)
}

type nopStore struct{}

func (nopStore) InitializeParticipant(Participant) {}
func (nopStore) CompleteParticipant(string)        {}
func (nopStore) SaveTrial(TrialRecord, string)     {}
func (nopStore) SavePreTrial(TrialRecord, string)  {}

type nopRenderer struct{}

func (nopRenderer) Render(View) {}
