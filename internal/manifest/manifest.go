// Package manifest turns a VOD's HLS or DASH description into a concrete,
// ordered plan of segment URLs covering a requested time window.
package manifest

import "errors"

// SegmentPlan is the ordered list of absolute segment URLs to fetch. Order
// is playback order; for HLS the optional initialization segment comes
// first. Plan index is the only identity a segment has downstream.
type SegmentPlan struct {
	URLs []string
}

func (p SegmentPlan) Len() int {
	return len(p.URLs)
}

// TimeWindow bounds a plan to [Start, End] time tags ("H:M:S", "M:S" or
// "S"). An empty Start means the beginning. An empty End means the full
// playlist duration for HLS and no upper bound for DASH.
type TimeWindow struct {
	Start string
	End   string
}

var (
	ErrNoVariant         = errors.New("master playlist has no variant playlists")
	ErrNoSegments        = errors.New("variant playlist has no media segments")
	ErrEmptyPlan         = errors.New("no segments fall inside the requested time window")
	ErrNoAdaptationSet   = errors.New("no adaptation set for the transport stream media type")
	ErrNoRepresentation  = errors.New("adaptation set has no representations")
	ErrQualityNotFound   = errors.New("quality not found")
	ErrNoBaseURL         = errors.New("representation has no base URL")
	ErrNoSegmentTemplate = errors.New("representation has no segment template")
	ErrNoSegmentTimeline = errors.New("segment template has no timeline")
)
