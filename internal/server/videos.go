package server

import (
	"errors"
	"net/http"

	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/processing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// eventBuffer is the per-client buffer for the status stream.
const eventBuffer = 32

type createVideoRequest struct {
	VideoID string `json:"videoId"`
}

// handleCreateVideo registers an uploaded video and starts processing it.
func (s *Server) handleCreateVideo(c *gin.Context) {
	var req createVideoRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	if req.VideoID == "" {
		req.VideoID = uuid.NewString()
	}

	tracker, err := s.processing.Start(req.VideoID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.Header("Location", "/api/v1/videos/"+req.VideoID)
	c.JSON(http.StatusAccepted, tracker.Snapshot())
}

// handleGetVideo returns the current processing state.
func (s *Server) handleGetVideo(c *gin.Context) {
	tracker, err := s.processing.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tracker.Snapshot())
}

// handleCancelVideo stops processing.
func (s *Server) handleCancelVideo(c *gin.Context) {
	st, err := s.processing.Cancel(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// handleVideoEvents streams state changes as server-sent events until the
// video reaches a terminal state or the client goes away.
func (s *Server) handleVideoEvents(c *gin.Context) {
	tracker, err := s.processing.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	// subscribe before the first snapshot so no change falls in between
	events, unsubscribe := tracker.Subscribe(eventBuffer)
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	current := tracker.Snapshot()
	s.sendStatus(c, current)
	if current.Status.Terminal() {
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Status stream client gone", "video_id", current.VideoID)
			return
		case st, ok := <-events:
			if !ok {
				// closed after the terminal change; it may have been dropped
				if final := tracker.Snapshot(); final.Status.Terminal() {
					s.sendStatus(c, final)
				}
				if dropped := tracker.Dropped(); dropped > 0 {
					s.logger.Warn("Status stream missed updates", "video_id", current.VideoID, "dropped", dropped)
				}
				return
			}
			current = st
			s.sendStatus(c, st)
			if st.Status.Terminal() {
				return
			}
		}
	}
}

func (s *Server) sendStatus(c *gin.Context, st pipeline.State) {
	c.SSEvent("status", st)
	c.Writer.Flush()
}

func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, processing.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, processing.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, processing.ErrNoVideo):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, processing.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
