package workflow

import (
	"github.com/alkime/lecturequiz/internal/pipeline"
	tea "github.com/charmbracelet/bubbletea"
)

// ProgressMsg reports the current phase and its progress.
type ProgressMsg struct {
	Status   pipeline.Status
	Progress int
}

// CompleteMsg reports that every phase finished.
type CompleteMsg struct{}

// ErrorMsg reports that processing stopped.
type ErrorMsg struct {
	Reason string
}

// MsgFromState converts a tracker state into the message the pages consume.
func MsgFromState(st pipeline.State) tea.Msg {
	switch st.Status {
	case pipeline.StatusCompleted:
		return CompleteMsg{}
	case pipeline.StatusError:
		return ErrorMsg{Reason: st.Error}
	default:
		return ProgressMsg{Status: st.Status, Progress: st.Progress}
	}
}
