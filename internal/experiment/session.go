package experiment

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type Phase int

const (
	StartScreen Phase = iota
	ShowingInstructions
	PreTrialReady
	TrialRunning
	ExperimentFinished
)

func (p Phase) String() string {
	switch p {
	case StartScreen:
		return "start_screen"
	case ShowingInstructions:
		return "showing_instructions"
	case PreTrialReady:
		return "pre_trial_ready"
	case TrialRunning:
		return "trial_running"
	case ExperimentFinished:
		return "experiment_finished"
	}
	return "unknown"
}

var ErrInvalidSettings = errors.New("invalid experiment settings")

// Settings is the fixed design of the experiment.
type Settings struct {
	Amplitudes     []float64
	Widths         []float64
	TrialsPerBlock int
	Methods        []IndicationMethod
	Feedbacks      []FeedbackVariants

	CanvasWidth       int
	CanvasHeight      int
	StartButtonRadius float64

	// SampleWindow bounds how long positions are recorded after a trial starts.
	SampleWindow time.Duration
	PollInterval time.Duration
}

func (s Settings) Validate() error {
	if len(s.Amplitudes) == 0 || len(s.Widths) == 0 {
		return fmt.Errorf("%w: amplitude and width lists must not be empty", ErrInvalidSettings)
	}
	for _, a := range s.Amplitudes {
		for _, w := range s.Widths {
			if a <= 0 || w <= 0 {
				return fmt.Errorf("%w: %w: amplitude %v, width %v", ErrInvalidSettings, ErrDegenerateGeometry, a, w)
			}
		}
	}
	if s.TrialsPerBlock <= 0 {
		return fmt.Errorf("%w: trials per block must be positive, got %d", ErrInvalidSettings, s.TrialsPerBlock)
	}
	for _, m := range s.Methods {
		if !m.Valid() {
			return fmt.Errorf("%w: unknown indication method %q", ErrInvalidSettings, m)
		}
	}
	for _, f := range s.Feedbacks {
		if !f.Mode.Valid() {
			return fmt.Errorf("%w: unknown feedback mode %q", ErrInvalidSettings, f.Mode)
		}
		for _, b := range f.Buffers {
			if b < 0 {
				return fmt.Errorf("%w: negative buffer %v for feedback %q", ErrInvalidSettings, b, f.Mode)
			}
		}
	}
	if ConditionCount(s.Methods, s.Feedbacks) == 0 {
		return fmt.Errorf("%w: no conditions to run", ErrInvalidSettings)
	}
	if s.CanvasWidth <= 0 || s.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidSettings, s.CanvasWidth, s.CanvasHeight)
	}
	if s.StartButtonRadius <= 0 {
		return fmt.Errorf("%w: start button radius must be positive", ErrInvalidSettings)
	}
	if s.SampleWindow <= 0 || s.PollInterval <= 0 {
		return fmt.Errorf("%w: sample window and poll interval must be positive", ErrInvalidSettings)
	}
	return nil
}

// State is the structural progress of the experiment.
type State struct {
	Phase          Phase
	ConditionIndex int
	BlockIndex     int
	TrialIndex     int
	RandomStart    int
	Conditions     []Condition
	Blocks         []Block
	Targets        []Target
}

// Session is the experiment state machine. It is driven by discrete input
// callbacks and scheduler ticks from a single goroutine and is not safe for
// concurrent use.
type Session struct {
	settings    Settings
	participant Participant
	state       State

	record    *TrialRecord
	last      *TrialRecord
	pending   *Stage
	detector  Detector
	cursor    Point
	completed int

	sampler     Task
	windowStart time.Time
	press       pressMark

	store     Store
	renderer  Renderer
	scheduler Scheduler
	listeners []Listener
	rng       *rand.Rand
	logger    *zap.Logger
}

type Option func(*Session)

func WithStore(st Store) Option         { return func(s *Session) { s.store = st } }
func WithRenderer(r Renderer) Option    { return func(s *Session) { s.renderer = r } }
func WithScheduler(sc Scheduler) Option { return func(s *Session) { s.scheduler = sc } }
func WithRand(rng *rand.Rand) Option    { return func(s *Session) { s.rng = rng } }
func WithLogger(l *zap.Logger) Option   { return func(s *Session) { s.logger = l } }

func NewSession(settings Settings, p Participant, opts ...Option) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		settings:    settings,
		participant: p,
		store:       nopStore{},
		renderer:    nopRenderer{},
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.scheduler == nil {
		s.scheduler = NewTickScheduler()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// Register adds a listener for lifecycle events.
func (s *Session) Register(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Session) Phase() Phase { return s.state.Phase }

func (s *Session) Participant() Participant { return s.participant }

// State returns a copy of the current progress.
func (s *Session) State() State {
	st := s.state
	st.Conditions = append([]Condition(nil), s.state.Conditions...)
	st.Blocks = append([]Block(nil), s.state.Blocks...)
	st.Targets = append([]Target(nil), s.state.Targets...)
	return st
}

// Record is the trial record in progress, nil outside PreTrialReady and TrialRunning.
func (s *Session) Record() *TrialRecord { return s.record }

// LastTrial is the most recently scored trial.
func (s *Session) LastTrial() *TrialRecord { return s.last }

func (s *Session) StartButton() StartButton {
	return StartButton{
		X:      float64(s.settings.CanvasWidth) / 2,
		Y:      float64(s.settings.CanvasHeight) / 2,
		Radius: s.settings.StartButtonRadius,
	}
}

// AwaitingControl reports whether the start control, rather than a ring target, is live.
func (s *Session) AwaitingControl() bool {
	return s.state.Phase == StartScreen || s.state.Phase == ShowingInstructions
}

// ActiveTargetIndex is the ring position of the target to acquire, or -1 when no ring is shown.
func (s *Session) ActiveTargetIndex() int {
	switch s.state.Phase {
	case PreTrialReady:
		return PreTrialIndex(s.state.RandomStart)
	case TrialRunning:
		return ActiveIndex(s.state.TrialIndex, s.state.RandomStart)
	}
	return -1
}

func (s *Session) ActiveTarget() (Target, bool) {
	i := s.ActiveTargetIndex()
	if i < 0 || i >= len(s.state.Targets) {
		return Target{}, false
	}
	return s.state.Targets[i], true
}

// Progress returns scored trials so far and the total for the whole session.
func (s *Session) Progress() (done, total int) {
	conds := len(s.state.Conditions)
	if conds == 0 {
		conds = ConditionCount(s.settings.Methods, s.settings.Feedbacks)
	}
	blocks := len(s.settings.Amplitudes) * len(s.settings.Widths)
	return s.completed, conds * blocks * s.settings.TrialsPerBlock
}

func (s *Session) condition() Condition {
	if s.state.ConditionIndex < len(s.state.Conditions) {
		return s.state.Conditions[s.state.ConditionIndex]
	}
	return Condition{}
}

// OnControlActivated handles the start control. On the start screen it begins
// the session; while instructions are shown it must be operated with the
// upcoming condition's own indication method.
func (s *Session) OnControlActivated(method IndicationMethod, at time.Time) {
	switch s.state.Phase {
	case StartScreen:
		if method != Click {
			return
		}
		s.start(at)
	case ShowingInstructions:
		if method != s.condition().Indication {
			s.logger.Debug("start control ignored, wrong indication method",
				zap.String("method", string(method)),
				zap.String("expected", string(s.condition().Indication)))
			return
		}
		s.enterBlock(at)
	}
}

// OnPointerMove feeds a cursor sample into the acquisition detector.
func (s *Session) OnPointerMove(x, y float64, at time.Time) {
	s.cursor = Point{X: x, Y: y}
	if !s.tracking() {
		return
	}

	sample := PositionSample{X: x, Y: y, Time: msSince(s.record.MovementStartTime, at)}
	if s.inWindow(at) {
		s.record.CursorPositions = append(s.record.CursorPositions, sample)
	}

	idx := s.ActiveTargetIndex()
	s.detector.Observe(&s.state.Targets[idx], s.condition().Buffer, sample, s.record)
	s.render()
}

// OnIndicationDown records the press half of an acquisition attempt.
func (s *Session) OnIndicationDown(ev IndicationEvent) {
	if !s.tracking() || ev.Method != s.condition().Indication {
		return
	}
	if s.pending != nil && ev.Method == Key {
		// key auto-repeat
		return
	}

	s.cursor = ev.Pos()
	stage := s.evaluate(ev)
	s.pending = &stage

	s.press = pressMark{
		windowStart: s.windowStart,
		cursorLen:   len(s.record.CursorPositions),
		intervalLen: len(s.record.IntervalPositions),
	}
	s.windowStart = ev.At
	if s.sampler == nil {
		s.sampler = s.scheduler.Every(s.settings.PollInterval, s.poll)
		s.press.armed = true
	}
}

// OnIndicationUp resolves the attempt started by the matching press.
func (s *Session) OnIndicationUp(ev IndicationEvent) {
	if !s.tracking() || ev.Method != s.condition().Indication {
		return
	}
	if s.pending == nil {
		s.logger.Debug("release without press ignored", zap.String("method", string(ev.Method)))
		return
	}

	s.cursor = ev.Pos()
	down := *s.pending
	s.pending = nil
	up := s.evaluate(ev)

	res := Resolve(down, up)
	if res.Discarded {
		s.logger.Debug("indication discarded, too far from target",
			zap.Float64("downDistance", down.Distance),
			zap.Float64("upDistance", up.Distance))
		s.rollbackPress()
		return
	}

	if s.state.Phase == PreTrialReady {
		if !up.Valid || !up.InTarget {
			s.logger.Debug("pre-trial release outside target")
			return
		}
		res.apply(s.record, down, up)
		rec := *s.record
		s.store.SavePreTrial(rec, s.participant.ID)
		s.emit(PreTrialCompleted, ev.At, &rec)

		s.state.Phase = TrialRunning
		s.beginTrial(ev.At)
		return
	}

	res.apply(s.record, down, up)
	s.state.Targets[s.record.TargetIndex].Marked = true
	rec := *s.record
	s.last = &rec
	s.completed++
	s.store.SaveTrial(rec, s.participant.ID)
	s.logger.Debug("trial scored",
		zap.Int("condition", rec.ConditionIndex),
		zap.Int("block", rec.BlockIndex),
		zap.Int("trial", rec.TrialIndex),
		zap.Bool("success", rec.Success))
	s.emit(TrialScored, ev.At, &rec)

	s.nextTrial(ev.At)
}

// Stop cancels any outstanding sampling task.
func (s *Session) Stop() {
	s.stopSampling()
}

func (s *Session) start(at time.Time) {
	n := ConditionCount(s.settings.Methods, s.settings.Feedbacks)
	orderIndex := s.rng.Intn(n)
	conds := GenerateConditions(s.settings.Methods, s.settings.Feedbacks, orderIndex, s.rng)

	s.participant.StartedAt = at
	s.participant.OrderIndex = orderIndex
	s.participant.Conditions = conds
	s.store.InitializeParticipant(s.participant)

	s.state = State{
		Phase:      ShowingInstructions,
		Conditions: conds,
		Blocks:     GenerateBlocks(conds[0], s.settings.Amplitudes, s.settings.Widths, s.rng),
	}
	s.logger.Info("participant started",
		zap.String("participant", s.participant.ID),
		zap.Int("orderIndex", orderIndex),
		zap.Int("conditions", len(conds)))
	s.emit(ParticipantStarted, at, nil)
	s.render()
}

// enterBlock lays out the ring for the current block and waits for the pre-trial.
func (s *Session) enterBlock(at time.Time) {
	block := s.state.Blocks[s.state.BlockIndex]
	// Validate rejects non-positive amplitudes and widths before a session exists.
	targets := layoutRing(block.A, block.W, s.settings.CanvasWidth, s.settings.CanvasHeight)

	s.state.RandomStart = s.rng.Intn(randomStartRange)
	s.state.Targets = targets
	s.state.TrialIndex = 0
	s.state.Phase = PreTrialReady
	s.logger.Info("block started",
		zap.Int("condition", s.state.ConditionIndex),
		zap.Int("block", s.state.BlockIndex),
		zap.Float64("A", block.A),
		zap.Float64("W", block.W))
	s.beginTrial(at)
}

// beginTrial replaces the trial record and detector state, then re-arms sampling.
func (s *Session) beginTrial(at time.Time) {
	s.stopSampling()

	block := s.state.Blocks[s.state.BlockIndex]
	cond := block.Condition
	idx := s.ActiveTargetIndex()
	for i := range s.state.Targets {
		s.state.Targets[i].Hit = false
	}
	target := s.state.Targets[idx]

	s.record = &TrialRecord{
		ConditionIndex:    s.state.ConditionIndex,
		BlockIndex:        s.state.BlockIndex,
		TrialIndex:        s.state.TrialIndex,
		IsFirstTrial:      s.state.Phase == PreTrialReady,
		FeedbackMode:      cond.FeedbackMode,
		Buffer:            cond.Buffer,
		Indication:        cond.Indication,
		A:                 block.A,
		W:                 block.W,
		ID:                IndexOfDifficulty(block.A, block.W),
		TargetIndex:       idx,
		TargetX:           target.X,
		TargetY:           target.Y,
		MovementStartTime: at,
		StartPosition:     s.cursor,
		CursorPositions:   []PositionSample{},
		IntervalPositions: []PositionSample{},
		ReachingTimes:     []float64{},
		OutTimes:          []float64{},
		TargetEnterTimes:  []float64{},
		TargetExitTimes:   []float64{},
	}
	s.pending = nil
	s.detector.Reset()

	s.windowStart = at
	s.sampler = s.scheduler.Every(s.settings.PollInterval, s.poll)
	s.render()
}

// nextTrial advances trial, then block, then condition, ending the experiment
// after the last condition.
func (s *Session) nextTrial(at time.Time) {
	if s.state.TrialIndex+1 < s.settings.TrialsPerBlock {
		s.state.TrialIndex++
		s.beginTrial(at)
		return
	}

	if s.state.BlockIndex+1 < len(s.state.Blocks) {
		s.emit(BlockFinished, at, nil)
		s.state.TrialIndex = 0
		s.state.BlockIndex++
		s.enterBlock(at)
		return
	}

	if s.state.ConditionIndex+1 < len(s.state.Conditions) {
		s.emit(ConditionFinished, at, nil)
		s.stopSampling()
		s.record = nil
		s.pending = nil
		s.state.TrialIndex = 0
		s.state.BlockIndex = 0
		s.state.ConditionIndex++
		s.state.Blocks = GenerateBlocks(s.condition(), s.settings.Amplitudes, s.settings.Widths, s.rng)
		s.state.Targets = nil
		s.state.Phase = ShowingInstructions
		s.logger.Info("condition started",
			zap.Int("condition", s.state.ConditionIndex),
			zap.String("indication", string(s.condition().Indication)),
			zap.String("feedback", string(s.condition().FeedbackMode)),
			zap.Float64("buffer", s.condition().Buffer))
		s.render()
		return
	}

	s.finish(at)
}

func (s *Session) finish(at time.Time) {
	s.stopSampling()
	s.record = nil
	s.pending = nil
	s.state.Phase = ExperimentFinished

	s.participant.Completed = true
	s.participant.EndedAt = &at
	s.store.CompleteParticipant(s.participant.ID)
	s.logger.Info("experiment finished",
		zap.String("participant", s.participant.ID),
		zap.Int("trials", s.completed))
	s.emit(ExperimentEnded, at, nil)
	s.render()
}

func (s *Session) tracking() bool {
	return s.record != nil && (s.state.Phase == PreTrialReady || s.state.Phase == TrialRunning)
}

func (s *Session) inWindow(at time.Time) bool {
	return at.Sub(s.windowStart) <= s.settings.SampleWindow
}

func (s *Session) evaluate(ev IndicationEvent) Stage {
	target := s.state.Targets[s.ActiveTargetIndex()]
	return EvaluateStage(target, s.condition().Buffer, ev.Pos(), msSince(s.record.MovementStartTime, ev.At))
}

// poll records the last known cursor position. Once the sampling window has
// elapsed it cancels itself; the trial carries on.
func (s *Session) poll(now time.Time) {
	if !s.tracking() {
		return
	}
	if !s.inWindow(now) {
		s.stopSampling()
		return
	}
	s.record.IntervalPositions = append(s.record.IntervalPositions, PositionSample{
		X:    s.cursor.X,
		Y:    s.cursor.Y,
		Time: msSince(s.record.MovementStartTime, now),
	})
}

// pressMark is the sampling state a press replaced.
type pressMark struct {
	windowStart time.Time
	armed       bool
	cursorLen   int
	intervalLen int
}

// rollbackPress undoes the sampling window restart of a discarded press. Samples
// taken since the press survive only if they fall in the previous window.
func (s *Session) rollbackPress() {
	m := s.press
	s.windowStart = m.windowStart
	cutoff := msSince(s.record.MovementStartTime, m.windowStart.Add(s.settings.SampleWindow))
	s.record.CursorPositions = trimAfter(s.record.CursorPositions, m.cursorLen, cutoff)
	s.record.IntervalPositions = trimAfter(s.record.IntervalPositions, m.intervalLen, cutoff)
	if m.armed {
		s.stopSampling()
	}
}

// trimAfter drops samples from index from onward once their time passes cutoff.
func trimAfter(samples []PositionSample, from int, cutoff float64) []PositionSample {
	for i := from; i < len(samples); i++ {
		if samples[i].Time > cutoff {
			return samples[:i]
		}
	}
	return samples
}

func (s *Session) stopSampling() {
	if s.sampler != nil {
		s.sampler.Cancel()
		s.sampler = nil
	}
}

func (s *Session) emit(kind EventKind, at time.Time, rec *TrialRecord) {
	ev := Event{
		Kind:           kind,
		At:             at,
		ConditionIndex: s.state.ConditionIndex,
		BlockIndex:     s.state.BlockIndex,
		TrialIndex:     s.state.TrialIndex,
		Record:         rec,
	}
	for _, l := range s.listeners {
		l(ev)
	}
}

// View builds the snapshot handed to the Renderer.
func (s *Session) View() View {
	cond := s.condition()
	done, total := s.Progress()
	return View{
		Phase:          s.state.Phase,
		Targets:        append([]Target(nil), s.state.Targets...),
		ActiveIndex:    s.ActiveTargetIndex(),
		Feedback:       cond.FeedbackMode,
		Indication:     cond.Indication,
		PreTrial:       s.state.Phase == PreTrialReady,
		StartButton:    s.StartButton(),
		ConditionIndex: s.state.ConditionIndex,
		ConditionCount: len(s.state.Conditions),
		BlockIndex:     s.state.BlockIndex,
		BlockCount:     len(s.state.Blocks),
		TrialIndex:     s.state.TrialIndex,
		Completed:      done,
		Total:          total,
		LastTrial:      s.last,
	}
}

func (s *Session) render() {
	s.renderer.Render(s.View())
}
