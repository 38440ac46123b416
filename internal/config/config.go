package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

const (
	WindowWidth  = 1280
	WindowHeight = 800
	TPS          = 120

	TrialsPerBlock    = 11
	StartButtonRadius = 50
	SampleWindow      = 4 * time.Second
	PollInterval      = 10 * time.Millisecond

	// Audio cue
	CueFrequency = 880.0
	CueDuration  = 150 * time.Millisecond
	SampleRate   = 44100

	OutputDir = "results"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Window      WindowCfg      `yaml:"window"`
	Experiment  ExperimentCfg  `yaml:"experiment"`
	Participant ParticipantCfg `yaml:"participant"`
	Output      OutputCfg      `yaml:"output"`
	Cue         CueCfg         `yaml:"cue"`
	Debug       bool           `yaml:"debug"`
}

type WindowCfg struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	TPS    int `yaml:"tps"`
}

type ExperimentCfg struct {
	Amplitudes        []float64     `yaml:"amplitudes"`
	Widths            []float64     `yaml:"widths"`
	TrialsPerBlock    int           `yaml:"trialsPerBlock"`
	IndicationMethods []string      `yaml:"indicationMethods"`
	Feedbacks         []FeedbackCfg `yaml:"feedbacks"`
	SampleWindow      time.Duration `yaml:"sampleWindow"`
	PollInterval      time.Duration `yaml:"pollInterval"`
	StartButtonRadius float64       `yaml:"startButtonRadius"`
}

type FeedbackCfg struct {
	Mode    string    `yaml:"mode"`
	Buffers []float64 `yaml:"buffers"`
}

// ParticipantCfg holds values reported by the host and stored with the
// participant record as-is.
type ParticipantCfg struct {
	ScreenWidth         int               `yaml:"screenWidth"`
	ScreenHeight        int               `yaml:"screenHeight"`
	Zoom                float64           `yaml:"zoom"`
	Platform            map[string]string `yaml:"platform"`
	PromptRecruitmentID bool              `yaml:"promptRecruitmentId"`
}

type OutputCfg struct {
	Dir string `yaml:"dir"`
}

type CueCfg struct {
	Enabled   bool          `yaml:"enabled"`
	File      string        `yaml:"file"`
	Frequency float64       `yaml:"frequency"`
	Duration  time.Duration `yaml:"duration"`
}

func Default() *Config {
	return &Config{
		Window: WindowCfg{
			Width:  WindowWidth,
			Height: WindowHeight,
			TPS:    TPS,
		},
		Experiment: ExperimentCfg{
			Amplitudes:        []float64{238, 336, 672},
			Widths:            []float64{21, 42, 84},
			TrialsPerBlock:    TrialsPerBlock,
			IndicationMethods: []string{string(experiment.Click), string(experiment.Key)},
			Feedbacks: []FeedbackCfg{
				{Mode: string(experiment.FeedbackNone), Buffers: []float64{0}},
				{Mode: string(experiment.FeedbackGreen), Buffers: []float64{0, 10}},
			},
			SampleWindow:      SampleWindow,
			PollInterval:      PollInterval,
			StartButtonRadius: StartButtonRadius,
		},
		Participant: ParticipantCfg{Zoom: 1},
		Output:      OutputCfg{Dir: OutputDir},
		Cue: CueCfg{
			Enabled:   true,
			Frequency: CueFrequency,
			Duration:  CueDuration,
		},
	}
}

// Load decodes the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		r, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
		defer r.Close()

		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		if err = d.Decode(cfg); err != nil {
			return nil, fmt.Errorf("error reading config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS <= 0 {
		return fmt.Errorf("%w: tps must be positive", ErrInvalidConfig)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output dir is empty", ErrInvalidConfig)
	}
	if c.Cue.Enabled && c.Cue.File == "" && (c.Cue.Frequency <= 0 || c.Cue.Duration <= 0) {
		return fmt.Errorf("%w: cue tone needs a positive frequency and duration", ErrInvalidConfig)
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings converts the experiment section into the core's settings, laid out
// on the configured window.
func (c *Config) Settings() experiment.Settings {
	e := c.Experiment
	methods := make([]experiment.IndicationMethod, 0, len(e.IndicationMethods))
	for _, m := range e.IndicationMethods {
		methods = append(methods, experiment.IndicationMethod(m))
	}
	feedbacks := make([]experiment.FeedbackVariants, 0, len(e.Feedbacks))
	for _, f := range e.Feedbacks {
		feedbacks = append(feedbacks, experiment.FeedbackVariants{
			Mode:    experiment.FeedbackMode(f.Mode),
			Buffers: f.Buffers,
		})
	}

	return experiment.Settings{
		Amplitudes:        e.Amplitudes,
		Widths:            e.Widths,
		TrialsPerBlock:    e.TrialsPerBlock,
		Methods:           methods,
		Feedbacks:         feedbacks,
		CanvasWidth:       c.Window.Width,
		CanvasHeight:      c.Window.Height,
		StartButtonRadius: e.StartButtonRadius,
		SampleWindow:      e.SampleWindow,
		PollInterval:      e.PollInterval,
	}
}
