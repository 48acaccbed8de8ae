package phases_test

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/alkime/lecturequiz/internal/tui/components/phases"
	"github.com/alkime/lecturequiz/pkg/collections"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestPhases(t *testing.T) {
	checker := outputChecker{
		intervl: 50 * time.Millisecond,
		timeout: 2 * time.Second,
	}

	processing := &modelMock{t: t, name: "processing-page"}
	complete := &modelMock{t: t, name: "complete-page"}
	mocks := []*modelMock{processing, complete}

	ph := phases.New([]phases.Phase{
		phases.NewPhase("Processing", processing),
		phases.NewPhase("Complete", complete),
	})
	require.Equal(t, "Processing", ph.CurrentPhaseName())
	require.False(t, ph.Last())

	tm := teatest.NewTestModel(t, ph, teatest.WithInitialTermSize(120, 40))

	t.Run("initial phase", func(t *testing.T) {
		checker.CheckString(t, tm, "processing-page")
		inits := collections.Apply(mocks, func(m *modelMock) bool { return m.initCalled() })
		require.Equal(t, []bool{true, false}, inits)
	})

	t.Run("messages go to the current phase only", func(t *testing.T) {
		tm.Send(mockMsg{})
		require.Eventually(t, processing.updated, time.Second, 10*time.Millisecond)
		assert.False(t, complete.updated())
	})

	t.Run("phase can request advance", func(t *testing.T) {
		tm.Send(mockMsg{triggerForward: true})
		checker.CheckString(t, tm, "complete-page")
		inits := collections.Apply(mocks, func(m *modelMock) bool { return m.initCalled() })
		require.Equal(t, []bool{true, true}, inits)
	})

	t.Run("advance past the last phase is ignored", func(t *testing.T) {
		tm.Send(phases.NextPhaseMsg{})
		tm.Send(tea.Quit())
		final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(phases.Model)
		require.True(t, ok)
		assert.Equal(t, "Complete", final.CurrentPhaseName())
		assert.True(t, final.Last())
	})
}

func TestPhases_Empty(t *testing.T) {
	ph := phases.New(nil)
	assert.Nil(t, ph.Init())
	assert.Empty(t, ph.View())
	assert.Empty(t, ph.CurrentPhaseName())

	_, cmd := ph.Update(phases.NextPhaseMsg{})
	assert.Nil(t, cmd)
}

type modelMock struct {
	t    *testing.T
	name string

	mu      sync.Mutex
	inited  bool
	touched bool
}

func (m *modelMock) initCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inited
}

func (m *modelMock) updated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

func (m *modelMock) Init() tea.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inited = true
	return nil
}

func (m *modelMock) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.t.Logf("modelMock Update called: %s, msg: %#v\n", m.name, msg)

	if mm, ok := msg.(mockMsg); ok {
		m.mu.Lock()
		m.touched = true
		m.mu.Unlock()
		if mm.triggerForward {
			return m, phases.NextPhaseCmd
		}
	}

	return m, nil
}

func (m *modelMock) View() string { return m.name }

type outputChecker struct {
	intervl, timeout time.Duration
}

func (o outputChecker) Check(t *testing.T, tm *teatest.TestModel, check func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), check,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) CheckString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.Check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

type mockMsg struct {
	triggerForward bool
}
