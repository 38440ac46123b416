package game

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/fitts-ring/internal/experiment"
)

var (
	backgroundColor = color.RGBA{R: 18, G: 20, B: 28, A: 255}
	inactiveColor   = color.RGBA{R: 90, G: 95, B: 105, A: 255}
	markedColor     = color.RGBA{R: 60, G: 64, B: 74, A: 255}
	activeColor     = color.RGBA{R: 60, G: 120, B: 230, A: 255}
	preTrialColor   = color.RGBA{R: 235, G: 200, B: 40, A: 255}
	hitColor        = color.RGBA{R: 60, G: 200, B: 90, A: 255}
	textColor       = color.RGBA{R: 220, G: 225, B: 235, A: 255}
)

// targetColor picks the fill for ring position i.
func targetColor(v experiment.View, i int) color.RGBA {
	t := v.Targets[i]
	if i != v.ActiveIndex {
		if t.Marked {
			return markedColor
		}
		return inactiveColor
	}
	if t.Hit && v.Feedback == experiment.FeedbackGreen {
		return hitColor
	}
	if v.PreTrial {
		return preTrialColor
	}
	return activeColor
}

func indicationLabel(m experiment.IndicationMethod) string {
	switch m {
	case experiment.Key:
		return "SPACE"
	default:
		return "CLICK"
	}
}

// instructions are the lines shown before the ring appears.
func instructions(v experiment.View) []string {
	switch v.Phase {
	case experiment.StartScreen:
		return []string{
			"Select the highlighted circle as quickly and accurately as you can.",
			"Click the button to begin.",
		}
	case experiment.ShowingInstructions:
		lines := []string{fmt.Sprintf("Part %d of %d", v.ConditionIndex+1, v.ConditionCount)}
		if v.Indication == experiment.Key {
			lines = append(lines, "Point at the blue circle and press SPACE to select it.")
		} else {
			lines = append(lines, "Point at the blue circle and click to select it.")
		}
		if v.Feedback == experiment.FeedbackGreen {
			lines = append(lines, "The circle turns green while the pointer is on it.")
		}
		lines = append(lines,
			"Start each series on the yellow circle.",
			fmt.Sprintf("Press %s on the button to continue.", indicationLabel(v.Indication)))
		return lines
	case experiment.ExperimentFinished:
		return []string{"All done, thank you!", "Results have been saved. Press Esc to quit."}
	}
	return nil
}

// trialSummary describes the last scored trial.
func trialSummary(rec *experiment.TrialRecord) string {
	if rec == nil {
		return ""
	}
	outcome := "miss"
	if rec.Success {
		outcome = "hit"
	}
	return fmt.Sprintf("last: %s  ID %.2f  MT %.0f ms  peak %.0f px/s",
		outcome, rec.ID, rec.ConfirmationTime, experiment.PeakSpeed(rec.CursorPositions))
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	v := g.view

	switch v.Phase {
	case experiment.StartScreen, experiment.ShowingInstructions:
		g.drawText(screen, instructions(v), g.height/3)
		g.drawStartButton(screen, v)
	case experiment.PreTrialReady, experiment.TrialRunning:
		g.drawRing(screen, v)
	case experiment.ExperimentFinished:
		g.drawText(screen, instructions(v), g.height/2-20)
	}

	g.drawHUD(screen, v)
	g.drawProgressBar(screen, v)
}

func (g *Game) drawRing(screen *ebiten.Image, v experiment.View) {
	for i, t := range v.Targets {
		vector.DrawFilledCircle(screen, float32(t.X), float32(t.Y), float32(t.Radius), targetColor(v, i), true)
		if i == v.ActiveIndex {
			vector.StrokeCircle(screen, float32(t.X), float32(t.Y), float32(t.Radius), 1.5, textColor, true)
		}
	}
}

func (g *Game) drawStartButton(screen *ebiten.Image, v experiment.View) {
	b := v.StartButton
	var bg color.Color
	switch {
	case g.controlPressed:
		bg = color.RGBA{R: 60, G: 80, B: 120, A: 255} // Pressed
	case g.controlHovered:
		bg = color.RGBA{R: 80, G: 100, B: 140, A: 255} // Hovered
	default:
		bg = color.RGBA{R: 100, G: 120, B: 160, A: 255}
	}
	vector.DrawFilledCircle(screen, float32(b.X), float32(b.Y), float32(b.Radius), bg, true)
	vector.StrokeCircle(screen, float32(b.X), float32(b.Y), float32(b.Radius), 2, color.RGBA{R: 150, G: 170, B: 200, A: 255}, true)

	label := "Start"
	if v.Phase == experiment.ShowingInstructions {
		label = indicationLabel(v.Indication)
	}
	textWidth := len(label) * 6 // debug font glyph width
	ebitenutil.DebugPrintAt(screen, label, int(b.X)-textWidth/2, int(b.Y)-8)
}

func (g *Game) drawText(screen *ebiten.Image, lines []string, y int) {
	for i, line := range lines {
		x := (g.width - len(line)*6) / 2
		ebitenutil.DebugPrintAt(screen, line, x, y+i*18)
	}
}

// drawHUD shows the indication method and position in the session top left,
// and a speaker pulse while a cue is playing.
func (g *Game) drawHUD(screen *ebiten.Image, v experiment.View) {
	if v.Phase == experiment.StartScreen {
		return
	}

	status := fmt.Sprintf("%s | part %d/%d", indicationLabel(v.Indication), v.ConditionIndex+1, v.ConditionCount)
	if v.Phase == experiment.PreTrialReady || v.Phase == experiment.TrialRunning {
		status += fmt.Sprintf(" | block %d/%d | trial %d", v.BlockIndex+1, v.BlockCount, v.TrialIndex+1)
	}
	if v.PreTrial {
		status += " | start on the yellow circle"
	}
	ebitenutil.DebugPrintAt(screen, status, 12, 12)

	if summary := trialSummary(v.LastTrial); summary != "" {
		ebitenutil.DebugPrintAt(screen, summary, 12, 30)
	}

	if level := clamp01(g.level() * 4); level > 0.01 {
		r, gv, b := hsvToRgb(120-120*level, 0.7, 0.9)
		vector.DrawFilledCircle(screen, float32(g.width-24), 20, float32(4+8*level), color.RGBA{R: r, G: gv, B: b, A: 220}, true)
	}
}

func (g *Game) drawProgressBar(screen *ebiten.Image, v experiment.View) {
	if v.Total == 0 || v.Phase == experiment.StartScreen {
		return
	}

	barHeight := 12
	barY := g.height - 36
	barWidth := g.width - 40
	barX := 20

	progress := clamp01(float64(v.Completed) / float64(v.Total))

	vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), color.RGBA{R: 25, G: 30, B: 40, A: 200}, false)
	vector.StrokeRect(screen, float32(barX), float32(barY), float32(barWidth), float32(barHeight), 1, color.RGBA{R: 70, G: 80, B: 100, A: 255}, false)

	if progress > 0 {
		// Hue runs from blue to green as the session completes
		r, gv, b := hsvToRgb(220-100*progress, 0.6, 0.8)
		vector.DrawFilledRect(screen, float32(barX), float32(barY), float32(progress*float64(barWidth)), float32(barHeight), color.RGBA{R: r, G: gv, B: b, A: 200}, false)
	}

	var elapsed time.Duration
	if !g.startedAt.IsZero() {
		end := g.finishedAt
		if end.IsZero() {
			end = g.now()
		}
		elapsed = end.Sub(g.startedAt)
	}
	label := fmt.Sprintf("%d / %d", v.Completed, v.Total)
	ebitenutil.DebugPrintAt(screen, label, barX, barY+barHeight+4)
	clock := formatDuration(elapsed)
	ebitenutil.DebugPrintAt(screen, clock, barX+barWidth-len(clock)*6, barY+barHeight+4)
}
