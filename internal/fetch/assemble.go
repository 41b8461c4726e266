package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

// CombinedFilename is the single raw stream Assemble produces in the
// working directory.
const CombinedFilename = "combined.raw"

// Assemble concatenates the first planLen segment files in dir, in strict
// index order, into combined.raw and returns its path. Missing indices are
// skipped; the fetcher is responsible for deciding whether gaps are fatal.
// The result depends only on what is on disk, never on download order.
func Assemble(ctx context.Context, dir string, planLen int, events progress.Sink) (string, error) {
	if events == nil {
		events = progress.Nop
	}
	events.Publish(progress.Event{
		Stage:   progress.StageMerging,
		Current: 0,
		Total:   1,
		Message: "merging segments",
	})

	combined := filepath.Join(dir, CombinedFilename)
	out, err := os.Create(combined)
	if err != nil {
		return "", fmt.Errorf("failed to create merge target: %w", err)
	}
	defer out.Close()

	for i := 0; i < planLen; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		seg, err := os.Open(SegmentPath(dir, i))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("failed to open segment %d: %w", i, err)
		}
		_, err = io.Copy(out, seg)
		seg.Close()
		if err != nil {
			return "", fmt.Errorf("failed to merge segment %d: %w", i, err)
		}
	}

	events.Publish(progress.Event{
		Stage:   progress.StageMerging,
		Current: 1,
		Total:   1,
		Message: "merge complete",
	})
	return combined, nil
}
