package cue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"go.uber.org/zap"

	"github.com/iburimskiy/fitts-ring/internal/config"
	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

const (
	resampleQuality = 4
	levelWindow     = 2048
)

var ErrUnsupportedFile = errors.New("unsupported audio file type")

// Player sounds a short cue when a block, a condition or the whole experiment
// ends. The cue is decoded or synthesized once; every play streams it from memory.
type Player struct {
	logger     *zap.Logger
	sampleRate beep.SampleRate
	buffer     *beep.Buffer
	mixer      *beep.Mixer
	tap        *levelTap
	started    bool
}

// New prepares the cue from cfg: the audio file when one is set, otherwise a tone.
func New(cfg config.CueCfg, logger *zap.Logger) (*Player, error) {
	sr := beep.SampleRate(config.SampleRate)
	buffer := beep.NewBuffer(beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2})

	if cfg.File != "" {
		if err := appendFile(buffer, cfg.File); err != nil {
			return nil, err
		}
	} else {
		buffer.Append(Tone(sr, cfg.Frequency, cfg.Duration))
	}

	mixer := &beep.Mixer{}
	return &Player{
		logger:     logger,
		sampleRate: sr,
		buffer:     buffer,
		mixer:      mixer,
		tap:        newLevelTap(mixer, levelWindow),
	}, nil
}

func appendFile(buffer *beep.Buffer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cue file: %w", err)
	}
	defer f.Close()

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFile, ext)
	}
	if err != nil {
		return fmt.Errorf("failed to decode cue file %s: %w", path, err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != buffer.Format().SampleRate {
		s = beep.Resample(resampleQuality, format.SampleRate, buffer.Format().SampleRate, streamer)
	}
	buffer.Append(s)
	return nil
}

// Start opens the audio device. The mixer stays attached for the life of the
// process and plays silence between cues.
func (p *Player) Start() error {
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/20)); err != nil {
		return fmt.Errorf("failed to init speaker: %w", err)
	}
	speaker.Play(p.tap)
	p.started = true
	return nil
}

func (p *Player) Play() {
	if !p.started {
		return
	}
	speaker.Lock()
	p.mixer.Add(p.buffer.Streamer(0, p.buffer.Len()))
	speaker.Unlock()
}

// Handle is an experiment listener.
func (p *Player) Handle(ev experiment.Event) {
	switch ev.Kind {
	case experiment.BlockFinished, experiment.ConditionFinished, experiment.ExperimentEnded:
		p.logger.Debug("Playing cue", zap.Stringer("event", ev.Kind))
		p.Play()
	}
}

// Level is the recent output loudness, 0 when silent.
func (p *Player) Level() float64 {
	return p.tap.level(p.sampleRate.N(time.Second / 20))
}

// Duration of the cue.
func (p *Player) Duration() time.Duration {
	return p.sampleRate.D(p.buffer.Len())
}

func (p *Player) Close() {
	if p.started {
		speaker.Clear()
	}
}
