// Package clip downloads clips, which the service serves as a single MP4.
// No remux or working directory is involved; the file is streamed straight
// to its final path.
package clip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	chzzk_archiver "github.com/chzzk-archiver/chzzk-archiver"
	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

const Name = "clip"

func New() chzzk_archiver.Provider {
	return chzzk_archiver.Provider{Name: Name, Match: Match}
}

func init() {
	chzzk_archiver.DefaultProviderRegistry.MustAdd(New())
}

// Match accepts chzzk clip URLs (https://chzzk.naver.com/clips/{uid}).
// Bare IDs are not accepted, they are indistinguishable from video IDs
// only by not being numeric, which is too loose to claim.
func Match(input string) (chzzk_archiver.Source, error) {
	clipUID, err := ExtractClipUID(input)
	if err != nil {
		return nil, err
	}
	return &source{clipUID: clipUID}, nil
}

func ExtractClipUID(input string) (string, error) {
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("not a URL: %w", err)
	}
	switch u.Hostname() {
	case "chzzk.naver.com", "www.chzzk.naver.com":
	default:
		return "", fmt.Errorf("unrecognized host: %s", u.Hostname())
	}
	rest := strings.TrimPrefix(u.Path, "/clips/")
	if rest == u.Path {
		return "", fmt.Errorf("not a clip path: %s", u.Path)
	}
	clipUID := strings.TrimSuffix(rest, "/")
	if clipUID == "" {
		return "", fmt.Errorf("empty clip ID")
	}
	return clipUID, nil
}

type source struct {
	clipUID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://chzzk.naver.com/clips/%s", s.clipUID)
}

func (s *source) Recon(ctx context.Context, d *chzzk_archiver.Download) (chzzk_archiver.ResolvedSource, error) {
	d.Publish(progress.Event{Stage: progress.StageInfo, Total: 1, Message: "fetching clip info"})
	info, err := d.Client().GetClip(ctx, s.clipUID)
	if err != nil {
		return nil, fmt.Errorf("recon failed for %s: %w", s.URL(), err)
	}
	d.Publish(progress.Event{
		Stage:   progress.StageInfo,
		Current: 1,
		Total:   1,
		Message: fmt.Sprintf("%s / %s", info.Channel, info.Title),
	})
	return &resolvedSource{source: *s, info: info}, nil
}

type resolvedSource struct {
	source
	info *api.ClipInfo
}

func (s *resolvedSource) Info() chzzk_archiver.SourceInfo {
	return clipInfo{s.info}
}

func (s *resolvedSource) Download(d *chzzk_archiver.Download) (string, error) {
	ctx := d.Context()

	outputPath, err := d.Output().ClipPath(s.info.Channel, s.info.Title)
	if err != nil {
		return "", err
	}

	resp, err := d.Client().Get(ctx, s.info.MP4URL)
	if err != nil {
		return "", fmt.Errorf("clip download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("clip download failed: unexpected status %s", resp.Status)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	counter := &progressWriter{events: d.Events(), total: resp.ContentLength}
	if _, err := io.Copy(io.MultiWriter(out, counter), resp.Body); err != nil {
		return "", fmt.Errorf("clip download failed: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	d.Publish(progress.Event{
		Stage:   progress.StageComplete,
		Current: 1,
		Total:   1,
		Message: outputPath,
	})
	return outputPath, nil
}

// progressWriter reports whole-percent progress as bytes stream through.
type progressWriter struct {
	events      progress.Sink
	total       int64
	written     int64
	lastPercent int
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.total > 0 {
		percent := int(w.written * 100 / w.total)
		if percent != w.lastPercent {
			w.lastPercent = percent
			w.events.Publish(progress.Event{
				Stage:   progress.StageDownloading,
				Current: percent,
				Total:   100,
				Message: fmt.Sprintf("downloading clip (%d%%)", percent),
			})
		}
	}
	return len(p), nil
}

type clipInfo struct {
	info *api.ClipInfo
}

func (i clipInfo) ID() string        { return i.info.UID }
func (i clipInfo) Title() string     { return i.info.Title }
func (i clipInfo) Channel() string   { return i.info.Channel }
func (i clipInfo) Thumbnail() string { return i.info.Thumbnail }
