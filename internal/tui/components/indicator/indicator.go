// Package indicator renders pipeline steps and a progress bar for the
// current step.
package indicator

import (
	"fmt"
	"strings"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/tui/style"
	"github.com/alkime/lecturequiz/pkg/collections"
	"github.com/alkime/lecturequiz/pkg/uictl"
	"github.com/charmbracelet/bubbles/progress"
)

const (
	markDone    = "✓"
	markActive  = "●"
	markPending = "○"
	markFailed  = "✗"
)

// Model renders whatever state callers last set.
type Model struct {
	bar      progress.Model
	stage    pipeline.Status
	progress int
	status   pipeline.Status
}

// New creates an indicator with a progress bar of the given width.
func New(width int) Model {
	return Model{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(width),
			progress.WithoutPercentage(),
		),
		stage:  pipeline.StatusUploading,
		status: pipeline.StatusUploading,
	}
}

// SetState records the status and progress to render. The last working
// phase is remembered so the error state can point at the failed step.
func (m Model) SetState(status pipeline.Status, progress int) Model {
	m.status = status
	m.progress = max(0, min(progress, pipeline.MaxProgress))
	if collections.IndexOf(pipeline.Stages(), status) >= 0 {
		m.stage = status
	}

	return m
}

// SetWidth resizes the progress bar.
func (m Model) SetWidth(width int) Model {
	m.bar.Width = width
	return m
}

// View renders the step list followed by the progress bar.
func (m Model) View() string {
	var sb strings.Builder

	steps := collections.Apply(pipeline.Stages(), m.renderStep)
	sb.WriteString(strings.Join(steps, style.Muted.Render("  →  ")))
	sb.WriteString("\n\n")

	sb.WriteString(m.bar.ViewAs(uictl.Fraction[int](m)))
	sb.WriteString(" ")
	sb.WriteString(style.Label.Render(fmt.Sprintf("%3d%%", m.percent())))

	return sb.String()
}

func (m Model) renderStep(step pipeline.Status) string {
	current := collections.IndexOf(pipeline.Stages(), m.stage)
	idx := collections.IndexOf(pipeline.Stages(), step)

	switch {
	case m.status == pipeline.StatusCompleted || idx < current:
		return style.StepDone.Render(markDone + " " + step.Label())
	case idx == current && m.status == pipeline.StatusError:
		return style.Error.Render(markFailed + " " + step.Label())
	case idx == current:
		return style.StepActive.Render(markActive + " " + step.Label())
	default:
		return style.StepPending.Render(markPending + " " + step.Label())
	}
}

func (m Model) percent() int {
	if m.status == pipeline.StatusCompleted {
		return pipeline.MaxProgress
	}
	return m.progress
}

// Read returns the rendered percentage.
func (m Model) Read() int {
	return m.percent()
}

// Cap returns the rendered percentage and its maximum.
func (m Model) Cap() (int, int) {
	return m.percent(), pipeline.MaxProgress
}
