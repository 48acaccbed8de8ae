// Package tui is the terminal status view for a processing video.
package tui

import (
	"context"
	"time"

	"github.com/alkime/lecturequiz/internal/tui/components/phases"
	"github.com/alkime/lecturequiz/internal/tui/workflow"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// autoQuitDelay keeps the final page on screen briefly before exiting.
const autoQuitDelay = 1500 * time.Millisecond

// Config configures the root model.
type Config struct {
	VideoID string
	// Cancel stops processing when the user quits. Optional.
	Cancel context.CancelFunc
	// AutoQuit exits once processing finishes or fails.
	AutoQuit bool
}

type model struct {
	config Config
	keys   workflow.KeyMap
	pages  phases.Model
}

// New creates the root model.
func New(config Config) tea.Model {
	return model{
		config: config,
		keys:   workflow.DefaultKeyMap(),
		pages: phases.New([]phases.Phase{
			phases.NewPhase("Processing", workflow.NewProcessingPage(config.VideoID)),
			phases.NewPhase("Complete", workflow.NewCompletePage(config.VideoID)),
		}),
	}
}

func (m model) Init() tea.Cmd {
	return m.pages.Init()
}

func (m model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit, m.keys.ForceQuit) {
			if m.config.Cancel != nil {
				m.config.Cancel()
			}
			return m, tea.Quit
		}
	case workflow.CompleteMsg, workflow.ErrorMsg:
		updated, cmd := m.pages.Update(teaMsg)
		m.pages = updated.(phases.Model)
		if m.config.AutoQuit {
			return m, tea.Batch(cmd, tea.Tick(autoQuitDelay, func(time.Time) tea.Msg {
				return tea.Quit()
			}))
		}
		return m, cmd
	}

	updated, cmd := m.pages.Update(teaMsg)
	m.pages = updated.(phases.Model)

	return m, cmd
}

func (m model) View() string {
	return m.pages.View()
}

// Page returns the name of the page currently shown.
func (m model) Page() string {
	return m.pages.CurrentPhaseName()
}
