package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alkime/lecturequiz/internal/logger"
	"github.com/alkime/lecturequiz/internal/pipeline"
	"github.com/alkime/lecturequiz/internal/processing"
	"github.com/alkime/lecturequiz/internal/simulate"
	"github.com/alkime/lecturequiz/internal/telemetry"
	"github.com/alkime/lecturequiz/internal/tui"
	"github.com/alkime/lecturequiz/internal/tui/workflow"
	"github.com/alkime/lecturequiz/internal/workdir"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	eventBuffer     = 64
	shutdownTimeout = 5 * time.Second
)

// CLI defines the quizgen command structure.
type CLI struct {
	// Default command (runs when no subcommand given)
	Process ProcessCmd `cmd:"" default:"withargs" help:"Process a video and show its progress"`

	Version VersionCmd `cmd:"" help:"Print the version"`
}

// ProcessCmd runs the processing pipeline for one video in the terminal.
type ProcessCmd struct {
	VideoID  string        `flag:"" optional:"" help:"Video id (a UUID is generated when empty)"`
	Tick     time.Duration `flag:"" default:"300ms" env:"TICK_INTERVAL" help:"Progress tick interval"`
	Delay    time.Duration `flag:"" default:"500ms" env:"TRANSITION_DELAY" help:"Pause between phases"`
	AutoQuit bool          `flag:"" help:"Exit once processing finishes"`
	LogFile  string        `flag:"" optional:"" help:"Log file (default: the video's working directory)"`
	LogLevel string        `flag:"" default:"info" env:"LOG_LEVEL" help:"Log level: debug, info, warn, error"`

	OTELEnabled  bool   `flag:"" name:"otel" env:"OTEL_ENABLED" help:"Export metrics over OTLP"`
	OTELEndpoint string `flag:"" name:"otel-endpoint" env:"OTEL_ENDPOINT" help:"OTLP gRPC endpoint"`
	OTELInsecure bool   `flag:"" name:"otel-insecure" env:"OTEL_INSECURE" help:"Disable TLS for the OTLP exporter"`
}

// Run executes the process command.
func (c *ProcessCmd) Run() error {
	if c.Tick <= 0 {
		return fmt.Errorf("invalid tick %s: must be positive", c.Tick)
	}

	videoID := c.VideoID
	if videoID == "" {
		videoID = uuid.NewString()
	}

	closeLog, err := c.setupLogging(videoID)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := telemetry.NewRecorder(ctx, telemetry.Config{
		Enabled:  c.OTELEnabled,
		Endpoint: c.OTELEndpoint,
		Insecure: c.OTELInsecure,
	})

	svc := processing.NewService(simulate.Config{
		TickInterval:    c.Tick,
		TransitionDelay: c.Delay,
	}, metrics)

	tracker, err := svc.Start(videoID)
	if err != nil {
		return fmt.Errorf("failed to start processing: %w", err)
	}

	p := tea.NewProgram(tui.New(tui.Config{
		VideoID: videoID,
		Cancel: func() {
			if _, err := svc.Cancel(videoID); err != nil {
				slog.Error("Failed to cancel processing", "video_id", videoID, "error", err)
			}
		},
		AutoQuit: c.AutoQuit,
	}))

	events, unsubscribe := tracker.Subscribe(eventBuffer)

	wg := sync.WaitGroup{}
	wg.Go(func() {
		forwardStates(ctx, p, tracker, events)
	})

	_, runErr := p.Run()

	cancel()
	unsubscribe()
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := svc.Shutdown(shutdownCtx); err != nil {
		slog.Error("Processing shutdown failed", "error", err)
	}

	if runErr != nil {
		return fmt.Errorf("failed to start TUI: %w", runErr)
	}

	printSummary(os.Stdout, tracker.Snapshot())

	return nil
}

// setupLogging sends logs to a file since the TUI owns the terminal. Without
// --log-file the log goes to the video's working directory.
func (c *ProcessCmd) setupLogging(videoID string) (func(), error) {
	path := c.LogFile
	if path == "" {
		var err error
		if path, err = videoLogPath(videoID); err != nil {
			logger.SetupCLILogger(io.Discard, c.LogLevel)
			return func() {}, nil //nolint:nilerr // logging is best effort
		}
	}

	//nolint:gosec // Log file path comes from the user
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger.SetupCLILogger(f, c.LogLevel)

	return func() { _ = f.Close() }, nil
}

func videoLogPath(videoID string) (string, error) {
	if err := workdir.Prep(videoID); err != nil {
		return "", fmt.Errorf("failed to prepare working directory: %w", err)
	}

	return workdir.FilePath(videoID, workdir.LogFile)
}

// forwardStates relays tracker states to the TUI until the stream closes or
// ctx is cancelled.
func forwardStates(ctx context.Context, p *tea.Program, tracker *pipeline.Tracker, events <-chan pipeline.State) {
	p.Send(workflow.MsgFromState(tracker.Snapshot()))

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-events:
			if !ok {
				// the terminal state may have been dropped on a full buffer
				p.Send(workflow.MsgFromState(tracker.Snapshot()))
				if dropped := tracker.Dropped(); dropped > 0 {
					slog.Warn("TUI missed state updates", "dropped", dropped)
				}
				return
			}
			p.Send(workflow.MsgFromState(st))
		}
	}
}

func printSummary(w io.Writer, st pipeline.State) {
	switch st.Status {
	case pipeline.StatusCompleted:
		_, _ = fmt.Fprintf(w, "\nquiz ready for video %s. bye!\n", st.VideoID)
	case pipeline.StatusError:
		_, _ = fmt.Fprintf(w, "\nprocessing of video %s stopped: %s\n", st.VideoID, st.Error)
	default:
		_, _ = fmt.Fprintf(w, "\nprocessing of video %s left at %s %d%%\n", st.VideoID, st.Status, st.Progress)
	}
}

// VersionCmd prints the build version.
type VersionCmd struct{}

// Run executes the version command.
func (v *VersionCmd) Run() error {
	fmt.Println("quizgen", version)
	return nil
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("quizgen"),
		kong.Description("Turn a lecture video into quiz questions."),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
