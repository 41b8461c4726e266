// Package remux repackages the assembled raw stream into a seekable MP4 by
// shelling out to ffmpeg. Obtaining ffmpeg is the user's problem; this
// package only locates and runs it.
package remux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

var ErrNotInstalled = errors.New("ffmpeg is not installed")

var executableName = func() string {
	if runtime.GOOS == "windows" {
		return "ffmpeg.exe"
	}
	return "ffmpeg"
}()

// Locator finds a usable ffmpeg executable on the PATH, then in any extra
// directories.
type Locator struct {
	ExtraDirs []string
}

func (l Locator) Find() (string, error) {
	if path, err := exec.LookPath(executableName); err == nil {
		return path, nil
	}
	for _, dir := range l.ExtraDirs {
		path := filepath.Join(dir, executableName)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotInstalled
}

// Remux copies every stream of inputPath into an MP4 at outputPath without
// re-encoding. The moov atom is moved to the front for progressive playback
// and ADTS audio framing is rewritten for the MP4 sample table. On a
// non-zero exit the captured stderr is surfaced in the error; inputPath is
// never modified either way.
func Remux(ctx context.Context, tool, inputPath, outputPath string, events progress.Sink) error {
	if events == nil {
		events = progress.Nop
	}
	events.Publish(progress.Event{
		Stage:   progress.StageRemuxing,
		Current: 0,
		Total:   1,
		Message: "remuxing with ffmpeg",
	})

	cmd := exec.CommandContext(ctx, tool,
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-map", "0",
		"-movflags", "faststart",
		"-bsf:a", "aac_adtstoasc",
		outputPath,
	)
	var stderr bytes.Buffer
	cmd.Stdout = io.Discard
	cmd.Stderr = &stderr

	zap.S().Named("remux").Debugf("running %s", strings.Join(cmd.Args, " "))
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("ffmpeg exited with code %d: %s",
				exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("failed to run ffmpeg: %w", err)
	}

	events.Publish(progress.Event{
		Stage:   progress.StageRemuxing,
		Current: 1,
		Total:   1,
		Message: "remux complete",
	})
	return nil
}
