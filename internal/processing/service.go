// Package processing runs simulated processing for uploaded videos and owns
// their state.
package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/simulate"
	"github.com/alkime/lecturequiz/internal/telemetry"
)

var (
	// ErrNoVideo is returned when a video id is empty.
	ErrNoVideo = errors.New("video id required")
	// ErrAlreadyRunning is returned when starting a video that is still processing.
	ErrAlreadyRunning = errors.New("video is already processing")
	// ErrNotFound is returned for unknown video ids.
	ErrNotFound = errors.New("video not found")
	// ErrClosed is returned by Start after Shutdown.
	ErrClosed = errors.New("processing service is shut down")
)

// CancelledReason is recorded on videos stopped through Cancel.
const CancelledReason = "cancelled"

// DefaultRetention is how long a finished video stays queryable.
const DefaultRetention = time.Hour

// Option configures a Service.
type Option func(*Service)

// WithRetention sets how long finished videos are kept. Finished videos are
// evicted when a new video starts. A non-positive retention keeps them
// forever.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		s.retention = d
	}
}

type run struct {
	tracker *pipeline.Tracker
	cancel  context.CancelFunc
	started time.Time
}

// Service owns one tracker and one simulator per video.
type Service struct {
	sim       simulate.Config
	metrics   telemetry.Recorder
	retention time.Duration

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu     sync.Mutex
	runs   map[string]*run
	closed bool
	wg     sync.WaitGroup
}

// NewService creates a service. A nil recorder disables metrics.
func NewService(sim simulate.Config, metrics telemetry.Recorder, opts ...Option) *Service {
	if metrics == nil {
		metrics = telemetry.NewNoOpRecorder()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		sim:        sim,
		metrics:    metrics,
		retention:  DefaultRetention,
		baseCtx:    ctx,
		baseCancel: cancel,
		runs:       make(map[string]*run),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins processing videoID and returns its tracker. A video whose
// previous run has finished is started again from the beginning.
func (s *Service) Start(videoID string) (*pipeline.Tracker, error) {
	if videoID == "" {
		return nil, ErrNoVideo
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	s.evictLocked(time.Now())

	if existing, ok := s.runs[videoID]; ok && !existing.tracker.Snapshot().Status.Terminal() {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, videoID)
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	r := &run{
		tracker: pipeline.NewTracker(videoID),
		cancel:  cancel,
		started: time.Now(),
	}
	s.runs[videoID] = r

	sim := simulate.New(s.sim, r.tracker, s.callbacks(ctx, r))

	s.wg.Go(func() {
		defer cancel()

		err := sim.Run(ctx, videoID)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			slog.Debug("Processing stopped", "video_id", videoID)
		default:
			slog.Error("Processing failed", "video_id", videoID, "error", err)
		}
	})

	slog.Info("Processing started", "video_id", videoID)

	return r.tracker, nil
}

// Get returns the tracker for videoID.
func (s *Service) Get(videoID string) (*pipeline.Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	return r.tracker, nil
}

// Cancel stops processing videoID and marks it failed. Cancelling a video that
// already finished leaves its state unchanged.
func (s *Service) Cancel(videoID string) (pipeline.State, error) {
	s.mu.Lock()
	r, ok := s.runs[videoID]
	s.mu.Unlock()

	if !ok {
		return pipeline.State{}, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}

	r.cancel()

	if r.tracker.Fail(CancelledReason) {
		s.metrics.RecordOutcome(context.Background(), pipeline.StatusError, time.Since(r.started))
		slog.Info("Processing cancelled", "video_id", videoID)
	}

	return r.tracker.Snapshot(), nil
}

// Shutdown stops all runs and waits for them to exit or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.baseCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for processing runs: %w", ctx.Err())
	}

	if err := s.metrics.Close(ctx); err != nil {
		return fmt.Errorf("closing metrics: %w", err)
	}

	return nil
}

func (s *Service) callbacks(ctx context.Context, r *run) simulate.Callbacks {
	return simulate.Callbacks{
		OnProgress: func(status pipeline.Status, progress int) {
			prev := r.tracker.Snapshot().Status
			if !r.tracker.Update(status, progress) {
				return
			}

			if status != prev {
				s.metrics.RecordTransition(ctx, prev, status)
				return
			}
			s.metrics.RecordTick(ctx, status)
		},
		OnComplete: func() {
			// a cancel may have finished the video first
			if !r.tracker.Complete() {
				return
			}
			s.metrics.RecordTransition(ctx, pipeline.StatusGenerating, pipeline.StatusCompleted)
			s.metrics.RecordOutcome(ctx, pipeline.StatusCompleted, time.Since(r.started))
			slog.Info("Processing complete", "video_id", r.tracker.Snapshot().VideoID)
		},
		OnError: func(reason string) {
			if !r.tracker.Fail(reason) {
				return
			}
			s.metrics.RecordOutcome(ctx, pipeline.StatusError, time.Since(r.started))
		},
	}
}

// evictLocked drops finished runs older than the retention window.
func (s *Service) evictLocked(now time.Time) {
	if s.retention <= 0 {
		return
	}

	for id, r := range s.runs {
		st := r.tracker.Snapshot()
		if st.Status.Terminal() && now.Sub(st.UpdatedAt) > s.retention {
			delete(s.runs, id)
			slog.Debug("Evicted finished video", "video_id", id)
		}
	}
}
