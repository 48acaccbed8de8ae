package processing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/simulate"
	"github.com/alkime/lecturequiz/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcomeRecorder keeps run outcomes and transitions.
type outcomeRecorder struct {
	telemetry.NoOpRecorder

	mu          sync.Mutex
	outcomes    []pipeline.Status
	transitions int
}

func (o *outcomeRecorder) RecordTransition(context.Context, pipeline.Status, pipeline.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions++
}

func (o *outcomeRecorder) RecordOutcome(_ context.Context, outcome pipeline.Status, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *outcomeRecorder) snapshot() ([]pipeline.Status, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]pipeline.Status(nil), o.outcomes...), o.transitions
}

// startIdle starts a video whose simulator never ticks, so the test drives
// the callbacks itself.
func startIdle(t *testing.T) (*Service, *outcomeRecorder, *run) {
	t.Helper()

	rec := &outcomeRecorder{}
	svc := NewService(simulate.Config{TickInterval: time.Hour}, rec)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})

	_, err := svc.Start("vid-1")
	require.NoError(t, err)

	svc.mu.Lock()
	r := svc.runs["vid-1"]
	svc.mu.Unlock()
	require.NotNil(t, r)

	return svc, rec, r
}

func TestCallbacks_CompletionAfterCancel(t *testing.T) {
	svc, rec, r := startIdle(t)
	cb := svc.callbacks(context.Background(), r)
	cb.OnProgress(pipeline.StatusGenerating, 100)

	// the delay timer fired just before the cancel landed
	st, err := svc.Cancel("vid-1")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusError, st.Status)

	cb.OnComplete()
	cb.OnError("late failure")
	cb.OnProgress(pipeline.StatusGenerating, 100)

	outcomes, transitions := rec.snapshot()
	assert.Equal(t, []pipeline.Status{pipeline.StatusError}, outcomes, "one outcome per run")
	assert.Equal(t, 1, transitions, "only uploading->generating was applied")
	assert.Equal(t, pipeline.StatusError, r.tracker.Snapshot().Status)
}

func TestCallbacks_CancelAfterCompletion(t *testing.T) {
	svc, rec, r := startIdle(t)
	cb := svc.callbacks(context.Background(), r)

	cb.OnComplete()

	st, err := svc.Cancel("vid-1")
	require.NoError(t, err)
	assert.Equal(t, pipeline.StatusCompleted, st.Status)
	assert.Empty(t, st.Error)

	outcomes, _ := rec.snapshot()
	assert.Equal(t, []pipeline.Status{pipeline.StatusCompleted}, outcomes)
}
