package processing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/processing"
	"github.com/alkime/lecturequiz/internal/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRecorder implements telemetry.Recorder for testing.
type countingRecorder struct {
	mu          sync.Mutex
	ticks       map[pipeline.Status]int
	transitions []string
	outcomes    []pipeline.Status
	closed      bool
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{ticks: map[pipeline.Status]int{}}
}

func (c *countingRecorder) RecordTick(_ context.Context, status pipeline.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks[status]++
}

func (c *countingRecorder) RecordTransition(_ context.Context, from, to pipeline.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitions = append(c.transitions, from.String()+"->"+to.String())
}

func (c *countingRecorder) RecordOutcome(_ context.Context, outcome pipeline.Status, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

func (c *countingRecorder) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func fastSim() simulate.Config {
	return simulate.Config{TickInterval: time.Millisecond, TransitionDelay: time.Millisecond}
}

func shutdown(t *testing.T, svc *processing.Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))
}

func TestService_RunsToCompletion(t *testing.T) {
	rec := newCountingRecorder()
	svc := processing.NewService(fastSim(), rec)
	defer shutdown(t, svc)

	tracker, err := svc.Start("vid-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Status == pipeline.StatusCompleted
	}, 5*time.Second, 5*time.Millisecond)

	got, err := svc.Get("vid-1")
	require.NoError(t, err)
	assert.Same(t, tracker, got)
	assert.Equal(t, 100, got.Snapshot().Progress)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 20, rec.ticks[pipeline.StatusUploading])
	assert.Equal(t, 50, rec.ticks[pipeline.StatusTranscribing])
	assert.Equal(t, 100, rec.ticks[pipeline.StatusGenerating])
	assert.Equal(t, []string{
		"uploading->transcribing",
		"transcribing->generating",
		"generating->completed",
	}, rec.transitions)
	assert.Equal(t, []pipeline.Status{pipeline.StatusCompleted}, rec.outcomes)
}

func TestService_StartErrors(t *testing.T) {
	svc := processing.NewService(simulate.Config{TickInterval: time.Hour}, nil)

	_, err := svc.Start("")
	assert.ErrorIs(t, err, processing.ErrNoVideo)

	_, err = svc.Start("vid-1")
	require.NoError(t, err)

	_, err = svc.Start("vid-1")
	assert.ErrorIs(t, err, processing.ErrAlreadyRunning)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, processing.ErrNotFound)

	_, err = svc.Cancel("missing")
	assert.ErrorIs(t, err, processing.ErrNotFound)

	shutdown(t, svc)

	_, err = svc.Start("vid-2")
	assert.ErrorIs(t, err, processing.ErrClosed)
}

func TestService_Cancel(t *testing.T) {
	rec := newCountingRecorder()
	svc := processing.NewService(simulate.Config{
		TickInterval:    time.Millisecond,
		TransitionDelay: time.Hour,
	}, rec)
	defer shutdown(t, svc)

	tracker, err := svc.Start("vid-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return tracker.Snapshot().Progress > 0
	}, time.Second, time.Millisecond)

	st, err := svc.Cancel("vid-1")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusError, st.Status)
	assert.Equal(t, processing.CancelledReason, st.Error)

	// cancelling again does not change the outcome
	_, err = svc.Cancel("vid-1")
	require.NoError(t, err)

	rec.mu.Lock()
	assert.Equal(t, []pipeline.Status{pipeline.StatusError}, rec.outcomes)
	rec.mu.Unlock()

	t.Run("finished video can be restarted", func(t *testing.T) {
		restarted, err := svc.Start("vid-1")
		require.NoError(t, err)
		assert.NotSame(t, tracker, restarted)
		assert.Equal(t, pipeline.StatusUploading, restarted.Snapshot().Status)
	})
}

func TestService_ShutdownClosesMetrics(t *testing.T) {
	rec := newCountingRecorder()
	svc := processing.NewService(fastSim(), rec)

	_, err := svc.Start("vid-1")
	require.NoError(t, err)

	shutdown(t, svc)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.True(t, rec.closed)
}

func TestService_EvictsFinishedRuns(t *testing.T) {
	svc := processing.NewService(simulate.Config{TickInterval: time.Hour}, nil,
		processing.WithRetention(time.Millisecond))
	defer shutdown(t, svc)

	_, err := svc.Start("finished")
	require.NoError(t, err)
	_, err = svc.Start("running")
	require.NoError(t, err)
	_, err = svc.Cancel("finished")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = svc.Start("next")
	require.NoError(t, err)

	_, err = svc.Get("finished")
	assert.ErrorIs(t, err, processing.ErrNotFound, "finished run outlived its retention")

	_, err = svc.Get("running")
	assert.NoError(t, err, "running videos are never evicted")
}

func TestService_NoRetentionKeepsRuns(t *testing.T) {
	svc := processing.NewService(simulate.Config{TickInterval: time.Hour}, nil,
		processing.WithRetention(0))
	defer shutdown(t, svc)

	_, err := svc.Start("finished")
	require.NoError(t, err)
	_, err = svc.Cancel("finished")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.Start("next")
	require.NoError(t, err)

	_, err = svc.Get("finished")
	assert.NoError(t, err)
}
