// Package workdir manages the per-video directories quizgen writes to.
package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LogFile is the log file name inside a video's directory.
const LogFile = "quizgen.log"

// RootEnv overrides the root directory.
const RootEnv = "LECTUREQUIZ_HOME"

var errEmptyName = errors.New("video directory name is empty")

// Root returns the base directory for all quizgen files:
//
//	$LECTUREQUIZ_HOME, or $HOME/.lecturequiz when unset
func Root() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return root, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".lecturequiz"), nil
}

// VideoPath returns the directory for videoID.
func VideoPath(videoID string) (string, error) {
	name := SanitizeName(videoID)
	if name == "" {
		return "", errEmptyName
	}

	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "videos", name), nil
}

// FilePath returns the full path for a file in a video's directory.
func FilePath(videoID, filename string) (string, error) {
	videoPath, err := VideoPath(videoID)
	if err != nil {
		return "", err
	}
	return filepath.Join(videoPath, filename), nil
}

// Prep ensures that the directory for videoID exists.
func Prep(videoID string) error {
	videoPath, err := VideoPath(videoID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(videoPath, 0o755); err != nil {
		return fmt.Errorf("failed to create video directory %s: %w", videoPath, err)
	}

	return nil
}

// SanitizeName makes a video id safe for use as a directory name.
// Characters that are invalid in file paths become hyphens.
func SanitizeName(name string) string {
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"\"", "-",
		"<", "-",
		">", "-",
		"|", "-",
		"..", "-",
	)

	sanitized := replacer.Replace(name)

	// Trim leading/trailing spaces, dots and hyphens
	return strings.Trim(sanitized, " -.")
}
