package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ncruces/zenity"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iburimskiy/fitts-ring/internal/config"
	"github.com/iburimskiy/fitts-ring/internal/cue"
	"github.com/iburimskiy/fitts-ring/internal/experiment"
	"github.com/iburimskiy/fitts-ring/internal/game"
	"github.com/iburimskiy/fitts-ring/internal/logging"
	"github.com/iburimskiy/fitts-ring/internal/storage"
)

func main() {
	if err := run(); err != nil {
		showError("Fitts ring", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func showError(title string, err error) {
	_ = zenity.Error(err.Error(), zenity.Title(title), zenity.ErrorIcon)
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	outDir := flag.String("out", "", "output directory, overrides output.dir")
	debugLog := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *debugLog {
		cfg.Debug = true
	}

	logger, flush, err := logging.NewLogger(cfg.Debug, filepath.Join(cfg.Output.Dir, "logs"))
	if err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer flush()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Fatal error", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			flush()
			showError("Fitts ring", fmt.Errorf("the experiment closed unexpectedly: %v", r))
			os.Exit(2)
		}
	}()

	participant, err := newParticipant(cfg)
	if err != nil {
		return err
	}
	logger.Info("Participant created", zap.String("participant", participant.ID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	writer := storage.NewWriter(cfg.Output.Dir, logger.Named("storage"), storage.DefaultCapacity)
	g.Go(func() error {
		return writer.Run(ctx)
	})

	var level func() float64
	var player *cue.Player
	if cfg.Cue.Enabled {
		player, err = cue.New(cfg.Cue, logger.Named("cue"))
		if err == nil {
			err = player.Start()
		}
		if err != nil {
			// the experiment runs fine without sound
			logger.Warn("Audio cue disabled", zap.Error(err))
			player = nil
		} else {
			defer player.Close()
			level = player.Level
		}
	}

	sched := experiment.NewTickScheduler()
	screen := game.New(cfg.Window.Width, cfg.Window.Height, sched, level)
	session, err := experiment.NewSession(cfg.Settings(), participant,
		experiment.WithStore(writer),
		experiment.WithRenderer(screen),
		experiment.WithScheduler(sched),
		experiment.WithLogger(logger.Named("session")),
	)
	if err != nil {
		cancel()
		_ = g.Wait()
		return fmt.Errorf("error creating session: %w", err)
	}
	defer session.Stop()
	screen.Bind(session)

	eventLogger := logger.Named("events")
	session.Register(func(ev experiment.Event) {
		eventLogger.Debug("Event",
			zap.Stringer("kind", ev.Kind),
			zap.Int("condition", ev.ConditionIndex),
			zap.Int("block", ev.BlockIndex),
			zap.Int("trial", ev.TrialIndex))
	})
	if player != nil {
		session.Register(player.Handle)
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle("Fitts ring - Esc: quit")
	ebiten.SetTPS(cfg.Window.TPS)

	runErr := ebiten.RunGame(screen)
	if errors.Is(runErr, ebiten.Termination) {
		runErr = nil
	}
	if session.Phase() != experiment.ExperimentFinished {
		logger.Warn("Experiment closed before the end",
			zap.Stringer("phase", session.Phase()),
			zap.String("participant", participant.ID))
	}

	cancel()
	if err := g.Wait(); err != nil {
		return fmt.Errorf("error writing results: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("error running game: %w", runErr)
	}
	return nil
}

func newParticipant(cfg *config.Config) (experiment.Participant, error) {
	p := experiment.Participant{
		ID:           uuid.New().String(),
		ScreenWidth:  cfg.Participant.ScreenWidth,
		ScreenHeight: cfg.Participant.ScreenHeight,
		Zoom:         cfg.Participant.Zoom,
		Platform: map[string]string{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
		},
	}
	maps.Copy(p.Platform, cfg.Participant.Platform)
	if p.ScreenWidth == 0 || p.ScreenHeight == 0 {
		p.ScreenWidth, p.ScreenHeight = cfg.Window.Width, cfg.Window.Height
	}

	if cfg.Participant.PromptRecruitmentID {
		id, err := zenity.Entry("Recruitment ID (leave empty if none):", zenity.Title("Fitts ring"))
		if err != nil && !errors.Is(err, zenity.ErrCanceled) {
			return p, fmt.Errorf("error asking for recruitment id: %w", err)
		}
		p.RecruitmentID = id
	}
	return p, nil
}
