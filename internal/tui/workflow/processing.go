// Package workflow holds the pages shown while a video is processed.
package workflow

import (
	"fmt"
	"strings"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/tui/components/indicator"
	"github.com/alkime/lecturequiz/internal/tui/components/labeledspinner"
	"github.com/alkime/lecturequiz/internal/tui/components/phases"
	"github.com/alkime/lecturequiz/internal/tui/style"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 60

	subtitle = "Your video is being processed. " +
		"This may take a few minutes depending on the length of your lecture."
)

type processingPage struct {
	videoID   string
	spinner   labeledspinner.Model
	indicator indicator.Model
	status    pipeline.Status
	progress  int
	reason    string
}

// NewProcessingPage creates the page that follows videoID through the
// pipeline. An empty videoID renders a placeholder and never starts the
// spinner.
func NewProcessingPage(videoID string) tea.Model {
	status := pipeline.StatusUploading

	return &processingPage{
		videoID:   videoID,
		spinner:   labeledspinner.New(spinner.Dot, status.Label()+"...", progressLine(0), ""),
		indicator: indicator.New(defaultBarWidth),
		status:    status,
	}
}

func (p *processingPage) Init() tea.Cmd {
	if p.videoID == "" {
		return nil
	}

	return p.spinner.Init()
}

func (p *processingPage) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		p.indicator = p.indicator.SetWidth(min(max(msg.Width-10, 10), maxBarWidth))
		return p, nil

	case ProgressMsg:
		if p.status.Terminal() || !msg.Status.Valid() {
			return p, nil
		}
		p.status = msg.Status
		p.progress = msg.Progress
		p.indicator = p.indicator.SetState(msg.Status, msg.Progress)
		p.spinner = p.spinner.WithLabels(msg.Status.Label()+"...", progressLine(msg.Progress))
		return p, nil

	case CompleteMsg:
		if p.status.Terminal() {
			return p, nil
		}
		p.status = pipeline.StatusCompleted
		p.progress = pipeline.MaxProgress
		p.indicator = p.indicator.SetState(pipeline.StatusCompleted, pipeline.MaxProgress)
		return p, phases.NextPhaseCmd

	case ErrorMsg:
		if p.status.Terminal() {
			return p, nil
		}
		p.status = pipeline.StatusError
		p.reason = msg.Reason
		p.indicator = p.indicator.SetState(pipeline.StatusError, p.progress)
		return p, nil
	}

	// spinner stops once the pipeline is done
	if p.videoID != "" && !p.status.Terminal() {
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(teaMsg)
		return p, cmd
	}

	return p, nil
}

func (p *processingPage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Processing Your Video"))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render(subtitle))
	sb.WriteString("\n\n")

	if p.videoID == "" {
		sb.WriteString(style.Muted.Render("No video selected"))
		sb.WriteString("\n\n")
		sb.WriteString(renderGlobalKeyHelp())
		return sb.String()
	}

	sb.WriteString(style.Label.Render("Video: "))
	sb.WriteString(style.Muted.Render(p.videoID))
	sb.WriteString("\n\n")

	sb.WriteString(p.indicator.View())
	sb.WriteString("\n\n")

	switch p.status {
	case pipeline.StatusError:
		reason := p.reason
		if reason == "" {
			reason = "unknown error"
		}
		sb.WriteString(style.Error.Render("✗ Processing failed: " + reason))
		sb.WriteString("\n")
	case pipeline.StatusCompleted:
		sb.WriteString(style.Success.Render("✓ Processing complete"))
		sb.WriteString("\n")
	default:
		sb.WriteString(p.spinner.View())
		sb.WriteString("\n\n")
		sb.WriteString(style.Panel.Render(
			style.Label.Render("What's happening now?") + "\n" + p.status.Description(),
		))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}

func progressLine(progress int) string {
	return fmt.Sprintf("%d%% complete", progress)
}
