package indicator_test

import (
	"testing"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/tui/components/indicator"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestIndicator(t *testing.T) {
	m := indicator.New(20)

	t.Run("initial state", func(t *testing.T) {
		v := m.View()
		assert.Contains(t, v, "● Upload")
		assert.Contains(t, v, "○ Transcribe")
		assert.Contains(t, v, "○ Generate Questions")
		assert.Contains(t, v, "  0%")
	})

	t.Run("middle phase", func(t *testing.T) {
		v := m.SetState(pipeline.StatusTranscribing, 42).View()
		assert.Contains(t, v, "✓ Upload")
		assert.Contains(t, v, "● Transcribe")
		assert.Contains(t, v, "○ Generate Questions")
		assert.Contains(t, v, " 42%")
	})

	t.Run("completed marks every step done", func(t *testing.T) {
		v := m.SetState(pipeline.StatusGenerating, 60).SetState(pipeline.StatusCompleted, 0).View()
		assert.Contains(t, v, "✓ Upload")
		assert.Contains(t, v, "✓ Transcribe")
		assert.Contains(t, v, "✓ Generate Questions")
		assert.Contains(t, v, "100%")
	})

	t.Run("error marks the failed step", func(t *testing.T) {
		v := m.SetState(pipeline.StatusTranscribing, 10).SetState(pipeline.StatusError, 10).View()
		assert.Contains(t, v, "✓ Upload")
		assert.Contains(t, v, "✗ Transcribe")
		assert.Contains(t, v, "○ Generate Questions")
	})

	t.Run("progress is clamped", func(t *testing.T) {
		assert.Contains(t, m.SetState(pipeline.StatusUploading, 250).View(), "100%")
		assert.Contains(t, m.SetState(pipeline.StatusUploading, -4).View(), "  0%")
	})
}

func TestIndicator_Dial(t *testing.T) {
	m := indicator.New(20).SetState(pipeline.StatusGenerating, 30)
	num, maxValue := m.Cap()
	assert.Equal(t, 30, num)
	assert.Equal(t, pipeline.MaxProgress, maxValue)

	num, _ = m.SetState(pipeline.StatusCompleted, 0).Cap()
	assert.Equal(t, pipeline.MaxProgress, num, "completed renders as full")
}
