package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

const (
	ParticipantsDir   = "participants"
	TrialsFileName    = "trials.jsonl"
	PreTrialsFileName = "pretrials.jsonl"

	DefaultCapacity = 256
)

type opKind int

const (
	opInitialize opKind = iota
	opComplete
	opTrial
	opPreTrial
)

type op struct {
	kind          opKind
	at            time.Time
	participantID string
	participant   experiment.Participant
	record        experiment.TrialRecord
}

// trialLine is one row of trials.jsonl / pretrials.jsonl.
type trialLine struct {
	ParticipantID string    `json:"participantId"`
	Timestamp     time.Time `json:"timestamp"`
	experiment.TrialRecord
}

// Writer persists experiment documents as JSON files under a directory. Its
// Store methods only enqueue; Run does the file IO on its own goroutine.
type Writer struct {
	dir    string
	logger *zap.Logger
	ops    chan op
	now    func() time.Time

	// owned by Run
	participants map[string]experiment.Participant
	trials       *os.File
	preTrials    *os.File
}

func NewWriter(dir string, logger *zap.Logger, capacity int) *Writer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Writer{
		dir:          dir,
		logger:       logger,
		ops:          make(chan op, capacity),
		now:          time.Now,
		participants: make(map[string]experiment.Participant),
	}
}

func (w *Writer) InitializeParticipant(p experiment.Participant) {
	w.enqueue(op{kind: opInitialize, participantID: p.ID, participant: p})
}

func (w *Writer) CompleteParticipant(participantID string) {
	w.enqueue(op{kind: opComplete, participantID: participantID})
}

func (w *Writer) SaveTrial(rec experiment.TrialRecord, participantID string) {
	w.enqueue(op{kind: opTrial, participantID: participantID, record: rec})
}

func (w *Writer) SavePreTrial(rec experiment.TrialRecord, participantID string) {
	w.enqueue(op{kind: opPreTrial, participantID: participantID, record: rec})
}

func (w *Writer) enqueue(o op) {
	o.at = w.now()
	select {
	case w.ops <- o:
	default:
		w.logger.Warn("Storage queue full, dropping write",
			zap.String("participant", o.participantID),
			zap.Int("kind", int(o.kind)))
	}
}

// Run writes queued documents until ctx is cancelled, then drains what is
// still queued and closes its files.
func (w *Writer) Run(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Join(w.dir, ParticipantsDir), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	defer w.close()

	for {
		select {
		case o := <-w.ops:
			w.apply(o)
		case <-ctx.Done():
			for {
				select {
				case o := <-w.ops:
					w.apply(o)
				default:
					return nil
				}
			}
		}
	}
}

func (w *Writer) apply(o op) {
	var err error
	switch o.kind {
	case opInitialize:
		w.participants[o.participantID] = o.participant
		err = w.writeParticipant(o.participant)
	case opComplete:
		p, ok := w.participants[o.participantID]
		if !ok {
			w.logger.Error("Completing unknown participant", zap.String("participant", o.participantID))
			return
		}
		endedAt := o.at
		p.Completed = true
		p.EndedAt = &endedAt
		w.participants[o.participantID] = p
		err = w.writeParticipant(p)
	case opTrial:
		err = w.appendLine(&w.trials, TrialsFileName, trialLine{o.participantID, o.at, o.record})
	case opPreTrial:
		err = w.appendLine(&w.preTrials, PreTrialsFileName, trialLine{o.participantID, o.at, o.record})
	}
	if err != nil {
		w.logger.Error("Storage write failed",
			zap.String("participant", o.participantID),
			zap.Error(err))
	}
}

func (w *Writer) writeParticipant(p experiment.Participant) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal participant: %w", err)
	}

	path := filepath.Join(w.dir, ParticipantsDir, p.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write participant file: %w", err)
	}
	return nil
}

func (w *Writer) appendLine(f **os.File, name string, line trialLine) error {
	if *f == nil {
		file, err := os.OpenFile(filepath.Join(w.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", name, err)
		}
		*f = file
	}

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("failed to marshal trial: %w", err)
	}
	if _, err := (*f).Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (w *Writer) close() {
	for _, f := range []*os.File{w.trials, w.preTrials} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			w.logger.Error("Failed to close output file", zap.String("file", f.Name()), zap.Error(err))
		}
	}
	w.trials, w.preTrials = nil, nil
}
