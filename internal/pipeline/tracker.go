package pipeline

import (
	"sync"
	"time"

	"github.com/alkime/lecturequiz/pkg/channels"
)

// State is a point-in-time snapshot of a video's processing.
type State struct {
	VideoID   string    `json:"videoId"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Tracker owns the phase and progress of a single video.
// All changes are published to subscribers in the order they were applied.
type Tracker struct {
	mu    sync.RWMutex
	state State
	hub   *channels.Broadcaster[State]
	now   func() time.Time
}

// NewTracker creates a tracker for videoID in the uploading phase.
func NewTracker(videoID string) *Tracker {
	t := &Tracker{
		hub: channels.NewBroadcaster[State](),
		now: time.Now,
	}
	t.state = State{
		VideoID:   videoID,
		Status:    StatusUploading,
		Progress:  0,
		UpdatedAt: t.now(),
	}

	return t
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.state
}

// Update sets the phase and progress. Progress is clamped into [0, MaxProgress].
// Updates after a terminal state are ignored and report false.
func (t *Tracker) Update(status Status, progress int) bool {
	return t.apply(func(s *State) bool {
		if s.Status.Terminal() {
			return false
		}
		s.Status = status
		s.Progress = clamp(progress)

		return true
	})
}

// Complete marks the video as fully processed. It reports false when the
// video had already finished.
func (t *Tracker) Complete() bool {
	return t.apply(func(s *State) bool {
		if s.Status.Terminal() {
			return false
		}
		s.Status = StatusCompleted
		s.Progress = MaxProgress

		return true
	})
}

// Fail moves the video into the error phase and records why. It reports
// false when the video had already finished.
func (t *Tracker) Fail(reason string) bool {
	return t.apply(func(s *State) bool {
		if s.Status.Terminal() {
			return false
		}
		s.Status = StatusError
		s.Error = reason

		return true
	})
}

// Subscribe returns a channel receiving every state change from now on and a
// function that releases the subscription. The channel is closed after the
// terminal state has been delivered or when cancel is called.
func (t *Tracker) Subscribe(buffer int) (<-chan State, func()) {
	return t.hub.Subscribe(buffer)
}

// Dropped returns how many state changes were not delivered to slow
// subscribers, including subscribers that are already gone.
func (t *Tracker) Dropped() int {
	return t.hub.Dropped()
}

func (t *Tracker) apply(mutate func(s *State) bool) bool {
	t.mu.Lock()
	if !mutate(&t.state) {
		t.mu.Unlock()
		return false
	}
	t.state.UpdatedAt = t.now()
	snapshot := t.state
	// publish while holding the lock so subscribers observe changes in order
	t.hub.Publish(snapshot)
	t.mu.Unlock()

	if snapshot.Status.Terminal() {
		t.hub.Close()
	}

	return true
}

func clamp(progress int) int {
	return max(0, min(progress, MaxProgress))
}
