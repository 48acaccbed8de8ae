package labeledspinner_test

import (
	"testing"

	"github.com/alkime/lecturequiz/internal/tui/components/labeledspinner"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestLabeledSpinner(t *testing.T) {
	m := labeledspinner.New(spinner.Dot, "Uploading video...", "Preparing your lecture", "Elapsed: 0s")

	v0 := m.View()
	t.Run("view output", func(t *testing.T) {
		assert.Contains(t, v0, "Uploading video...")
		assert.Contains(t, v0, "Preparing your lecture")
		assert.Contains(t, v0, "Elapsed: 0s")
		assert.Contains(t, v0, spinner.Dot.Frames[0])
	})

	t.Run("spinner advances on tick", func(t *testing.T) {
		m, _ = m.Update(spinner.TickMsg{})
		assert.Contains(t, m.View(), spinner.Dot.Frames[1])
	})

	t.Run("labels can change without resetting the spinner", func(t *testing.T) {
		m = m.WithLabels("Transcribing audio...", "")
		v := m.ViewWithHelp("")
		assert.Contains(t, v, "Transcribing audio...")
		assert.NotContains(t, v, "Preparing your lecture")
		assert.NotContains(t, v, "Elapsed")
		assert.Contains(t, v, spinner.Dot.Frames[1])
	})

	t.Run("ignores unrelated messages", func(t *testing.T) {
		_, cmd := m.Update("noise")
		assert.Nil(t, cmd)
	})
}
