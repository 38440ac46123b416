package game

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

// IndicationKey is the key used by the key indication method.
const IndicationKey = ebiten.KeySpace

// frameInput is the input observed during one ebiten tick.
type frameInput struct {
	X, Y      float64
	Moved     bool
	MouseDown bool
	MouseUp   bool
	KeyDown   bool
	KeyUp     bool
}

// Game binds ebiten input and drawing to an experiment session. It is the
// session's Renderer: Draw only ever reads the last View it was handed.
type Game struct {
	session *experiment.Session
	sched   *experiment.TickScheduler
	level   func() float64
	now     func() time.Time

	width, height int
	view          experiment.View
	startedAt     time.Time
	finishedAt    time.Time

	// input edge detection
	prevKey    map[ebiten.Key]bool
	lastX      int
	lastY      int
	cursorSeen bool

	// start control state
	controlHovered bool
	controlPressed bool
}

// New creates the game. level reports the audio cue loudness and may be nil.
func New(width, height int, sched *experiment.TickScheduler, level func() float64) *Game {
	if level == nil {
		level = func() float64 { return 0 }
	}
	return &Game{
		sched:   sched,
		level:   level,
		now:     time.Now,
		width:   width,
		height:  height,
		prevKey: map[ebiten.Key]bool{},
		view:    experiment.View{Phase: experiment.StartScreen, ActiveIndex: -1},
	}
}

// Bind attaches the session driven by this game.
func (g *Game) Bind(s *experiment.Session) {
	g.session = s
	g.view = s.View()
}

func (g *Game) Render(v experiment.View) {
	if v.Phase != experiment.StartScreen && g.startedAt.IsZero() {
		g.startedAt = g.now()
	}
	if v.Phase == experiment.ExperimentFinished && g.finishedAt.IsZero() {
		g.finishedAt = g.now()
	}
	g.view = v
}

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	if justPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	mouseX, mouseY := ebiten.CursorPosition()
	in := frameInput{
		X:         float64(mouseX),
		Y:         float64(mouseY),
		Moved:     !g.cursorSeen || mouseX != g.lastX || mouseY != g.lastY,
		MouseDown: inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		MouseUp:   inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		KeyDown:   inpututil.IsKeyJustPressed(IndicationKey),
		KeyUp:     inpututil.IsKeyJustReleased(IndicationKey),
	}
	g.lastX, g.lastY, g.cursorSeen = mouseX, mouseY, true

	g.handle(in, g.now())
	return nil
}

// handle routes one tick of input to the session. Scheduled tasks run first so
// sampling sees the cursor as it was before this tick's events.
func (g *Game) handle(in frameInput, now time.Time) {
	g.sched.Advance(now)
	if g.session == nil {
		return
	}

	s := g.session
	if in.Moved {
		s.OnPointerMove(in.X, in.Y, now)
	}

	if s.AwaitingControl() {
		g.controlHovered = s.StartButton().Contains(experiment.Point{X: in.X, Y: in.Y})
		if in.MouseDown && g.controlHovered {
			g.controlPressed = true
		}
		if in.MouseUp {
			if g.controlPressed && g.controlHovered {
				s.OnControlActivated(experiment.Click, now)
			}
			g.controlPressed = false
		}
		if in.KeyDown {
			s.OnControlActivated(experiment.Key, now)
		}
		return
	}
	g.controlHovered, g.controlPressed = false, false

	if in.MouseDown {
		s.OnIndicationDown(experiment.IndicationEvent{Method: experiment.Click, X: in.X, Y: in.Y, At: now})
	}
	if in.MouseUp {
		s.OnIndicationUp(experiment.IndicationEvent{Method: experiment.Click, X: in.X, Y: in.Y, At: now})
	}
	if in.KeyDown {
		s.OnIndicationDown(experiment.IndicationEvent{Method: experiment.Key, X: in.X, Y: in.Y, At: now})
	}
	if in.KeyUp {
		s.OnIndicationUp(experiment.IndicationEvent{Method: experiment.Key, X: in.X, Y: in.Y, At: now})
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
