package manifest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
)

// Quality is one selectable rendition. ID feeds straight back into
// ResolveHLS/ResolveDASH as the qualityID argument: a variant reference for
// HLS, a representation id for DASH.
type Quality struct {
	ID        string
	Width     int
	Height    int
	Bandwidth int64
	Label     string
}

// EnumerateHLS lists the master playlist's variants, highest bandwidth
// first.
func EnumerateHLS(ctx context.Context, client *api.Client, masterURL string) ([]Quality, error) {
	masterText, err := client.GetText(ctx, masterURL)
	if err != nil {
		return nil, fmt.Errorf("master playlist: %w", err)
	}
	master, err := decodeMaster(masterText)
	if err != nil {
		return nil, fmt.Errorf("master playlist: %w", err)
	}
	if len(master.Variants) == 0 {
		return nil, ErrNoVariant
	}

	var qualities []Quality
	for _, variant := range master.Variants {
		if variant == nil || variant.URI == "" {
			continue
		}
		q := Quality{ID: variant.URI, Bandwidth: int64(variant.Bandwidth)}
		if w, h, ok := parseResolution(variant.Resolution); ok {
			q.Width, q.Height = w, h
		}
		q.Label = qualityLabel(q.Height, q.Bandwidth)
		qualities = append(qualities, q)
	}
	sortQualities(qualities)
	return qualities, nil
}

// EnumerateDASH lists the transport stream representations of a playback
// descriptor, highest bandwidth first.
func EnumerateDASH(desc *api.PlaybackDescriptor) ([]Quality, error) {
	set := desc.AdaptationSetByMimeType(api.MimeTypeTransportStream)
	if set == nil {
		return nil, ErrNoAdaptationSet
	}
	if len(set.Representation) == 0 {
		return nil, ErrNoRepresentation
	}

	var qualities []Quality
	for _, rep := range set.Representation {
		q := Quality{ID: rep.ID, Width: rep.Width, Height: rep.Height, Bandwidth: rep.Bandwidth}
		q.Label = qualityLabel(q.Height, q.Bandwidth)
		qualities = append(qualities, q)
	}
	sortQualities(qualities)
	return qualities, nil
}

func qualityLabel(height int, bandwidth int64) string {
	mbps := float64(bandwidth) / 1e6
	if height > 0 {
		return fmt.Sprintf("%dp (%.1fMbps)", height, mbps)
	}
	return fmt.Sprintf("%.1fMbps", mbps)
}

func sortQualities(qualities []Quality) {
	sort.SliceStable(qualities, func(i, j int) bool {
		return qualities[i].Bandwidth > qualities[j].Bandwidth
	})
}

func parseResolution(resolution string) (width, height int, ok bool) {
	parts := strings.SplitN(resolution, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil {
		return 0, 0, false
	}
	return w, h, true
}
