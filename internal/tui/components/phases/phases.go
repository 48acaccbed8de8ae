// Package phases provides a container that shows one page at a time and
// advances through them in order.
package phases

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NextPhaseMsg signals the phases container to advance to the next phase.
type NextPhaseMsg struct{}

// NextPhaseCmd is a command producing NextPhaseMsg.
func NextPhaseCmd() tea.Msg {
	return NextPhaseMsg{}
}

// Phase is a named page.
type Phase struct {
	Name string
	mdl  tea.Model
}

// NewPhase wraps mdl as a phase called name.
func NewPhase(name string, mdl tea.Model) Phase {
	return Phase{
		Name: name,
		mdl:  mdl,
	}
}

func (p Phase) Init() tea.Cmd {
	return p.mdl.Init()
}

func (p Phase) Update(msg tea.Msg) (Phase, tea.Cmd) {
	updatedMdl, cmd := p.mdl.Update(msg)
	p.mdl = updatedMdl
	return p, cmd
}

func (p Phase) View() string {
	return p.mdl.View()
}

// Model shows the current phase and forwards messages to it.
// Only the current phase receives messages; a phase is initialized when it
// becomes current.
type Model struct {
	phases []Phase
	curr   int
}

func New(phases []Phase) Model {
	return Model{
		phases: phases,
		curr:   0,
	}
}

func (m Model) currentPhase() Phase {
	return m.phases[m.curr]
}

func (m Model) Init() tea.Cmd {
	if len(m.phases) == 0 {
		return nil
	}
	return m.currentPhase().Init()
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if len(m.phases) == 0 {
		return m, nil
	}

	if _, ok := teaMsg.(NextPhaseMsg); ok {
		if m.curr >= len(m.phases)-1 {
			return m, nil
		}
		m.curr++
		return m, m.currentPhase().Init()
	}

	ph, cmd := m.currentPhase().Update(teaMsg)
	m.phases[m.curr] = ph

	return m, cmd
}

func (m Model) View() string {
	if len(m.phases) == 0 {
		return ""
	}
	return m.currentPhase().View()
}

// CurrentPhaseName returns the name of the current phase.
func (m Model) CurrentPhaseName() string {
	if len(m.phases) == 0 {
		return ""
	}
	return m.currentPhase().Name
}

// Last reports whether the current phase is the final one.
func (m Model) Last() bool {
	return m.curr >= len(m.phases)-1
}
