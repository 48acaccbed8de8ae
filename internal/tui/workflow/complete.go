package workflow

import (
	"strings"

	"github.com/alkime/lecturequiz/internal/tui/style"
	tea "github.com/charmbracelet/bubbletea"
)

type completePage struct {
	videoID string
}

// NewCompletePage creates the page shown once questions are ready.
func NewCompletePage(videoID string) tea.Model {
	return &completePage{videoID: videoID}
}

func (c *completePage) Init() tea.Cmd {
	return nil
}

func (c *completePage) Update(tea.Msg) (tea.Model, tea.Cmd) {
	return c, nil
}

func (c *completePage) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("=== Your quiz is ready! ==="))
	sb.WriteString("\n\n")
	sb.WriteString(style.Success.Render("✓ Upload  ✓ Transcribe  ✓ Generate Questions"))
	sb.WriteString("\n\n")
	sb.WriteString(style.Label.Render("Video: "))
	sb.WriteString(style.Muted.Render(c.videoID))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render("Multiple-choice questions were generated for every segment of the lecture."))
	sb.WriteString("\n\n")
	sb.WriteString(renderGlobalKeyHelp())

	return sb.String()
}
