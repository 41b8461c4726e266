package chzzk_archiver

import (
	"path/filepath"
	"strings"
	"text/template"

	"github.com/chzzk-archiver/chzzk-archiver/util"
)

var (
	vodFileTemplate  = template.Must(template.New("vod_file").Parse("{{.Channel}}_{{.Title}}_{{.Start}}_{{.End}}.mp4"))
	clipFileTemplate = template.Must(template.New("clip_file").Parse("{{.Channel}}_{{.Title}}.mp4"))
)

// OutputConfig derives final container paths from source metadata.
type OutputConfig struct {
	TargetDir string
}

func NewOutputConfig(targetDir string) OutputConfig {
	if targetDir == "" {
		targetDir = "."
	}
	return OutputConfig{TargetDir: targetDir}
}

type outputTemplateArgs struct {
	Channel string
	Title   string
	Start   string
	End     string
}

// TempDir is the per-content working directory for segment files. It lives
// under the target directory so partial downloads and the final file share
// a filesystem.
func (c OutputConfig) TempDir(contentID string) string {
	return filepath.Join(c.TargetDir, "temp_"+contentID)
}

// VODPath names a VOD download. Time tags have their colons stripped; an
// empty end tag becomes "END". Channel and title are sanitized for the
// filesystem.
func (c OutputConfig) VODPath(channel, title, startTag, endTag string) (string, error) {
	end := strings.ReplaceAll(endTag, ":", "")
	if end == "" {
		end = "END"
	}
	start := strings.ReplaceAll(startTag, ":", "")
	if start == "" {
		start = "0"
	}
	args := outputTemplateArgs{
		Channel: util.SanitizeFilename(channel),
		Title:   util.SanitizeFilename(title),
		Start:   start,
		End:     end,
	}
	builder := &strings.Builder{}
	if err := vodFileTemplate.Execute(builder, &args); err != nil {
		return "", err
	}
	return filepath.Join(c.TargetDir, builder.String()), nil
}

// ClipPath names a clip download.
func (c OutputConfig) ClipPath(channel, title string) (string, error) {
	args := outputTemplateArgs{
		Channel: util.SanitizeFilename(channel),
		Title:   util.SanitizeFilename(title),
	}
	builder := &strings.Builder{}
	if err := clipFileTemplate.Execute(builder, &args); err != nil {
		return "", err
	}
	return filepath.Join(c.TargetDir, builder.String()), nil
}
