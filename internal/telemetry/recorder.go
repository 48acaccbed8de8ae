// Package telemetry records processing metrics.
package telemetry

import (
	"context"
	"time"

	"github.com/alkime/lecturequiz/internal/pipeline"
)

// Recorder records metrics for simulated processing runs.
type Recorder interface {
	// RecordTick records one progress step in status.
	RecordTick(ctx context.Context, status pipeline.Status)
	// RecordTransition records a move from one phase to the next.
	RecordTransition(ctx context.Context, from, to pipeline.Status)
	// RecordOutcome records how a run ended and how long it took.
	RecordOutcome(ctx context.Context, outcome pipeline.Status, elapsed time.Duration)
	// Close flushes pending metrics.
	Close(ctx context.Context) error
}

// NoOpRecorder discards all metrics.
type NoOpRecorder struct{}

// NewNoOpRecorder creates a recorder used when no collector is configured.
func NewNoOpRecorder() *NoOpRecorder {
	return &NoOpRecorder{}
}

func (NoOpRecorder) RecordTick(context.Context, pipeline.Status)                        {}
func (NoOpRecorder) RecordTransition(context.Context, pipeline.Status, pipeline.Status) {}
func (NoOpRecorder) RecordOutcome(context.Context, pipeline.Status, time.Duration)      {}
func (NoOpRecorder) Close(context.Context) error                                        { return nil }
