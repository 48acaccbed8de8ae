// Package simulate fakes processing progress for a video until a real
// progress feed is available.
//
// A Simulator does not own any state. On every tick it reads the phase and
// progress from a StateReader and asks the owner to change them through
// Callbacks.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alkime/lecturequiz/internal/pipeline"
)

const (
	// DefaultTickInterval is how often progress advances.
	DefaultTickInterval = 300 * time.Millisecond
	// DefaultTransitionDelay is the pause between a phase reaching 100 and
	// the next phase (or completion) being reported.
	DefaultTransitionDelay = 500 * time.Millisecond
)

// ErrInvalidState is returned when the state reader reports a phase or
// progress value outside the known range.
var ErrInvalidState = errors.New("invalid processing state")

// Config controls simulator timing.
type Config struct {
	TickInterval    time.Duration
	TransitionDelay time.Duration
}

// DefaultConfig returns the standard timing.
func DefaultConfig() Config {
	return Config{
		TickInterval:    DefaultTickInterval,
		TransitionDelay: DefaultTransitionDelay,
	}
}

// StateReader exposes the state owned by the caller.
type StateReader interface {
	Snapshot() pipeline.State
}

// Callbacks receive the changes requested by the simulator.
// Nil callbacks are ignored.
type Callbacks struct {
	OnProgress func(status pipeline.Status, progress int)
	OnComplete func()
	OnError    func(reason string)
}

// Simulator advances progress on a repeating timer.
type Simulator struct {
	cfg   Config
	state StateReader
	cb    Callbacks
}

// New creates a simulator reading from state. A non-positive tick interval
// or a negative delay falls back to the default.
func New(cfg Config, state StateReader, cb Callbacks) *Simulator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.TransitionDelay < 0 {
		cfg.TransitionDelay = DefaultTransitionDelay
	}

	return &Simulator{
		cfg:   cfg,
		state: state,
		cb:    cb,
	}
}

// Advance computes the progress after one tick in status.
// The boolean is false when status does not advance or is already finished.
func Advance(status pipeline.Status, progress int) (int, bool) {
	inc := status.Increment()
	if inc == 0 || progress >= pipeline.MaxProgress {
		return progress, false
	}

	return min(progress+inc, pipeline.MaxProgress), true
}

// Run drives the simulation for videoID until the pipeline completes, the
// state becomes terminal, or ctx is cancelled.
//
// An empty videoID returns immediately without starting a timer. Only one
// timer is held at a time: the ticker is stopped while a transition delay
// is pending.
func (s *Simulator) Run(ctx context.Context, videoID string) error {
	if videoID == "" {
		return nil
	}

	log := slog.With("video_id", videoID)
	log.Debug("Progress simulation started", "tick", s.cfg.TickInterval, "delay", s.cfg.TransitionDelay)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Progress simulation stopped", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
		}

		st := s.state.Snapshot()
		if err := validate(st); err != nil {
			log.Error("Progress simulation aborted", "error", err)
			s.reportError(err.Error())

			return err
		}

		if st.Status.Terminal() {
			log.Debug("Progress simulation finished", "status", st.Status)
			return nil
		}

		next, due := Advance(st.Status, st.Progress)
		if due {
			s.reportProgress(st.Status, next)
		}

		if next < pipeline.MaxProgress {
			continue
		}

		// phase finished: hold the delay timer instead of the ticker
		ticker.Stop()

		if err := s.sleep(ctx); err != nil {
			log.Debug("Progress simulation stopped", "reason", err)
			return err
		}

		following := st.Status.Next()
		if following == pipeline.StatusCompleted {
			log.Debug("Progress simulation complete")
			s.reportComplete()

			return nil
		}

		log.Debug("Phase transition", "from", st.Status, "to", following)
		s.reportProgress(following, 0)
		ticker.Reset(s.cfg.TickInterval)
	}
}

func (s *Simulator) sleep(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.TransitionDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) reportProgress(status pipeline.Status, progress int) {
	if s.cb.OnProgress != nil {
		s.cb.OnProgress(status, progress)
	}
}

func (s *Simulator) reportComplete() {
	if s.cb.OnComplete != nil {
		s.cb.OnComplete()
	}
}

func (s *Simulator) reportError(reason string) {
	if s.cb.OnError != nil {
		s.cb.OnError(reason)
	}
}

func validate(st pipeline.State) error {
	if !st.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, st.Status)
	}
	if st.Progress < 0 || st.Progress > pipeline.MaxProgress {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidState, st.Progress)
	}

	return nil
}
