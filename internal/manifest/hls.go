package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/grafov/m3u8"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/util"
)

// ResolveHLS builds a segment plan from an HLS master playlist URL. With an
// empty qualityID the last listed variant is used; otherwise qualityID is
// the variant reference itself, taken verbatim from quality enumeration.
// Segment URLs resolve as siblings of the variant playlist.
func ResolveHLS(ctx context.Context, client *api.Client, masterURL string, window TimeWindow, qualityID string) (SegmentPlan, error) {
	variantRef := qualityID
	if variantRef == "" {
		masterText, err := client.GetText(ctx, masterURL)
		if err != nil {
			return SegmentPlan{}, fmt.Errorf("master playlist: %w", err)
		}
		master, err := decodeMaster(masterText)
		if err != nil {
			return SegmentPlan{}, fmt.Errorf("master playlist: %w", err)
		}
		if len(master.Variants) == 0 {
			return SegmentPlan{}, ErrNoVariant
		}
		variantRef = master.Variants[len(master.Variants)-1].URI
	}
	variantURL := util.ResolveURL(masterURL, variantRef)

	variantText, err := client.GetText(ctx, variantURL)
	if err != nil {
		return SegmentPlan{}, fmt.Errorf("variant playlist: %w", err)
	}
	media, err := decodeMedia(variantText)
	if err != nil {
		return SegmentPlan{}, fmt.Errorf("variant playlist: %w", err)
	}

	segments := liveSegments(media)
	if len(segments) == 0 {
		return SegmentPlan{}, ErrNoSegments
	}

	var plan SegmentPlan
	if media.Map != nil && media.Map.URI != "" {
		plan.URLs = append(plan.URLs, util.ResolveURL(variantURL, media.Map.URI))
	}

	var total float64
	for _, seg := range segments {
		total += seg.Duration
	}

	start := util.ParseTimeTag(window.Start)
	end := total
	if window.End != "" {
		end = util.ParseTimeTag(window.End)
	}

	// A segment is in the window if any part of it overlaps [start, end].
	cursor := 0.0
	for _, seg := range segments {
		if cursor+seg.Duration >= start && cursor <= end {
			plan.URLs = append(plan.URLs, util.ResolveURL(variantURL, seg.URI))
		}
		cursor += seg.Duration
		if cursor > end {
			break
		}
	}
	return plan, nil
}

func decodeMaster(text string) (*m3u8.MasterPlaylist, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil, err
	}
	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok || listType != m3u8.MASTER {
		return nil, fmt.Errorf("expected a master playlist")
	}
	return master, nil
}

func decodeMedia(text string) (*m3u8.MediaPlaylist, error) {
	playlist, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return nil, err
	}
	media, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok || listType != m3u8.MEDIA {
		return nil, fmt.Errorf("expected a media playlist")
	}
	return media, nil
}

// liveSegments filters out the nil tail the decoder leaves in its
// fixed-capacity segment slice.
func liveSegments(media *m3u8.MediaPlaylist) []*m3u8.MediaSegment {
	segments := make([]*m3u8.MediaSegment, 0, len(media.Segments))
	for _, seg := range media.Segments {
		if seg != nil {
			segments = append(segments, seg)
		}
	}
	return segments
}
