// Package fetch downloads a segment plan into a working directory and
// assembles the pieces into a single raw stream.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/manifest"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

const (
	DefaultConcurrency = 20

	segmentTimeout     = 30 * time.Second
	segmentFilePattern = "seg_%05d.m4s"
)

// SegmentPath returns the working-directory location for plan index i.
func SegmentPath(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf(segmentFilePattern, i))
}

// Fetcher downloads plan entries with bounded concurrency. Entries whose
// target file already exists are counted complete without a request, so
// re-running over the same directory resumes a partial download.
type Fetcher struct {
	client      *api.Client
	concurrency int
	events      progress.Sink
	log         *zap.SugaredLogger
}

func NewFetcher(client *api.Client, events progress.Sink) *Fetcher {
	if events == nil {
		events = progress.Nop
	}
	return &Fetcher{
		client:      client,
		concurrency: DefaultConcurrency,
		events:      events,
		log:         zap.S().Named("fetch"),
	}
}

func (f *Fetcher) WithConcurrency(n int) *Fetcher {
	if n > 0 {
		f.concurrency = n
	}
	return f
}

// FetchPlan downloads every plan entry into dir, creating it if needed.
// Segment files are only written whole, never partially, so any file that
// exists is trusted. All failures are collected; one failed segment fails
// the whole plan.
func (f *Fetcher) FetchPlan(ctx context.Context, plan manifest.SegmentPlan, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create segment directory: %w", err)
	}

	total := plan.Len()
	completed := atomic.NewUint32(0)
	sem := make(chan struct{}, f.concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs error

	for i, url := range plan.URLs {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := f.fetchSegment(ctx, i, url, dir, completed, total); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
		}(i, url)
	}
	wg.Wait()
	return errs
}

func (f *Fetcher) fetchSegment(ctx context.Context, i int, url, dir string, completed *atomic.Uint32, total int) error {
	target := SegmentPath(dir, i)
	if _, err := os.Stat(target); err == nil {
		f.log.Debugf("segment %d already present, skipping", i)
		f.report(completed, total)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, segmentTimeout)
	defer cancel()
	resp, err := f.client.Get(reqCtx, url)
	if err != nil {
		return fmt.Errorf("segment %d download failed: %w", i, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("segment %d download failed: unexpected status %s", i, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("segment %d read failed: %w", i, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("segment %d write failed: %w", i, err)
	}
	f.report(completed, total)
	return nil
}

func (f *Fetcher) report(completed *atomic.Uint32, total int) {
	done := completed.Inc()
	f.events.Publish(progress.Event{
		Stage:   progress.StageDownloading,
		Current: int(done),
		Total:   total,
		Message: fmt.Sprintf("downloading segments (%d/%d)", done, total),
	})
}
