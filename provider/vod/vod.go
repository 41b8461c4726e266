// Package vod downloads full VODs: manifest resolution into a segment plan,
// bounded-concurrency fetch into a working directory, ordered assembly and
// an ffmpeg remux into the final MP4.
package vod

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	chzzk_archiver "github.com/chzzk-archiver/chzzk-archiver"
	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/fetch"
	"github.com/chzzk-archiver/chzzk-archiver/internal/manifest"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
	"github.com/chzzk-archiver/chzzk-archiver/internal/remux"
)

const Name = "vod"

func New() chzzk_archiver.Provider {
	return chzzk_archiver.Provider{Name: Name, Match: Match}
}

func init() {
	chzzk_archiver.DefaultProviderRegistry.MustAdd(New())
}

// Match accepts chzzk VOD URLs (https://chzzk.naver.com/video/{id}) and
// bare numeric video IDs.
func Match(input string) (chzzk_archiver.Source, error) {
	videoID, err := ExtractVideoID(input)
	if err != nil {
		return nil, err
	}
	return &source{videoID: videoID}, nil
}

// ExtractVideoID pulls the numeric video ID out of a VOD URL or returns a
// bare numeric input unchanged.
func ExtractVideoID(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("empty input")
	}
	if isDigits(input) {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("not a URL: %w", err)
	}
	switch u.Hostname() {
	case "chzzk.naver.com", "www.chzzk.naver.com":
	default:
		return "", fmt.Errorf("unrecognized host: %s", u.Hostname())
	}
	rest := strings.TrimPrefix(u.Path, "/video/")
	if rest == u.Path {
		return "", fmt.Errorf("not a video path: %s", u.Path)
	}
	videoID := strings.TrimSuffix(rest, "/")
	if !isDigits(videoID) {
		return "", fmt.Errorf("invalid video ID: %q", videoID)
	}
	return videoID, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type source struct {
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://chzzk.naver.com/video/%s", s.videoID)
}

func (s *source) Recon(ctx context.Context, d *chzzk_archiver.Download) (chzzk_archiver.ResolvedSource, error) {
	d.Publish(progress.Event{Stage: progress.StageInfo, Total: 1, Message: "fetching video info"})
	info, err := d.Client().GetVideo(ctx, s.videoID)
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
	info *api.VideoInfo
}

func (s *resolvedSource) Info() chzzk_archiver.SourceInfo {
	return videoInfo{s.info}
}

// Download runs the whole pipeline. The working directory survives any
// failure so a rerun resumes from the segments already on disk; it is
// removed only after a successful remux.
func (s *resolvedSource) Download(d *chzzk_archiver.Download) (string, error) {
	if d.FFmpeg() == "" {
		return "", remux.ErrNotInstalled
	}
	ctx := d.Context()
	log := zap.S().Named("vod")
	window := d.Window()

	var plan manifest.SegmentPlan
	var err error
	if s.info.IsDASH() {
		plan, err = manifest.ResolveDASH(ctx, d.Client(), s.info.VideoKey, s.info.InKey, window, d.Quality())
	} else {
		plan, err = manifest.ResolveHLS(ctx, d.Client(), s.info.MasterURL, window, d.Quality())
	}
	if err != nil {
		return "", err
	}
	if plan.Len() == 0 {
		return "", manifest.ErrEmptyPlan
	}
	log.Infof("resolved %d segments for video %s", plan.Len(), s.videoID)

	tempDir := d.Output().TempDir(s.videoID)
	fetcher := fetch.NewFetcher(d.Client(), d.Events())
	if err := fetcher.FetchPlan(ctx, plan, tempDir); err != nil {
		return "", err
	}

	combined, err := fetch.Assemble(ctx, tempDir, plan.Len(), d.Events())
	if err != nil {
		return "", err
	}

	outputPath, err := d.Output().VODPath(s.info.Channel, s.info.Title, window.Start, window.End)
	if err != nil {
		return "", err
	}
	if err := remux.Remux(ctx, d.FFmpeg(), combined, outputPath, d.Events()); err != nil {
		return "", err
	}

	if err := os.RemoveAll(tempDir); err != nil {
		log.Warnf("failed to remove working directory %s: %v", tempDir, err)
	}
	d.Publish(progress.Event{
		Stage:   progress.StageComplete,
		Current: 1,
		Total:   1,
		Message: outputPath,
	})
	return outputPath, nil
}

// Qualities lists the selectable renditions for this VOD.
func (s *resolvedSource) Qualities(ctx context.Context, d *chzzk_archiver.Download) ([]manifest.Quality, error) {
	if s.info.IsDASH() {
		desc, err := d.Client().GetPlayback(ctx, s.info.VideoKey, s.info.InKey)
		if err != nil {
			return nil, err
		}
		return manifest.EnumerateDASH(desc)
	}
	return manifest.EnumerateHLS(ctx, d.Client(), s.info.MasterURL)
}

type videoInfo struct {
	info *api.VideoInfo
}

func (i videoInfo) ID() string        { return i.info.ID }
func (i videoInfo) Title() string     { return i.info.Title }
func (i videoInfo) Channel() string   { return i.info.Channel }
func (i videoInfo) Thumbnail() string { return i.info.Thumbnail }
