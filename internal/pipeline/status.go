// Package pipeline defines the video-to-quiz processing phases and the state
// holder that owns a video's current phase and progress.
package pipeline

import "fmt"

// Status is the current phase of a video in the processing pipeline.
type Status string

const (
	// StatusUploading is when the video is being uploaded and prepared.
	StatusUploading Status = "uploading"
	// StatusTranscribing is when the audio track is converted to text.
	StatusTranscribing Status = "transcribing"
	// StatusGenerating is when questions are generated from the transcript.
	StatusGenerating Status = "generating"
	// StatusCompleted indicates the pipeline finished successfully.
	StatusCompleted Status = "completed"
	// StatusError indicates the pipeline stopped because of a failure.
	StatusError Status = "error"
)

// MaxProgress is the progress value at which a phase is finished.
const MaxProgress = 100

// Stages returns the working phases in pipeline order.
func Stages() []Status {
	return []Status{StatusUploading, StatusTranscribing, StatusGenerating}
}

// ParseStatus converts a raw string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}

	return st, nil
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUploading, StatusTranscribing, StatusGenerating, StatusCompleted, StatusError:
		return true
	default:
		return false
	}
}

// Increment is the number of progress points a phase advances per tick.
// Terminal phases do not advance.
func (s Status) Increment() int {
	switch s {
	case StatusUploading:
		return 5
	case StatusTranscribing:
		return 2
	case StatusGenerating:
		return 1
	default:
		return 0
	}
}

// Next returns the phase that follows s. The last working phase is followed
// by StatusCompleted; terminal phases return themselves.
func (s Status) Next() Status {
	switch s {
	case StatusUploading:
		return StatusTranscribing
	case StatusTranscribing:
		return StatusGenerating
	case StatusGenerating:
		return StatusCompleted
	default:
		return s
	}
}

// Terminal reports whether no further work happens in s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Label returns the short step name shown in the step indicator.
func (s Status) Label() string {
	switch s {
	case StatusUploading:
		return "Upload"
	case StatusTranscribing:
		return "Transcribe"
	case StatusGenerating:
		return "Generate Questions"
	case StatusCompleted:
		return "Complete"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Description explains what is happening during s.
func (s Status) Description() string {
	switch s {
	case StatusUploading:
		return "Your video is being uploaded and prepared for processing. " +
			"This should only take a moment."
	case StatusTranscribing:
		return "Using Whisper AI to transcribe the audio from your video into text. " +
			"This process converts speech to text with high accuracy, even with background noise or accents."
	case StatusGenerating:
		return "The transcript has been divided into 5-minute segments. " +
			"Now, our local LLM is analyzing each segment to generate relevant " +
			"multiple-choice questions based on the lecture content."
	default:
		return ""
	}
}

func (s Status) String() string {
	return string(s)
}
