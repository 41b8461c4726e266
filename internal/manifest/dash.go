package manifest

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/util"
)

const defaultTimescale = 1000

// ResolveDASH builds a segment plan from the playback descriptor of a
// key-addressed VOD. With an empty qualityID the highest-bandwidth
// representation is used (first listed wins ties). Segment numbering starts
// at 1 and every timeline tick is counted even when its segment falls
// outside the window, so numbers stay aligned with the service's naming.
func ResolveDASH(ctx context.Context, client *api.Client, videoKey, inKey string, window TimeWindow, qualityID string) (SegmentPlan, error) {
	desc, err := client.GetPlayback(ctx, videoKey, inKey)
	if err != nil {
		return SegmentPlan{}, err
	}
	return planFromDescriptor(desc, window, qualityID)
}

func planFromDescriptor(desc *api.PlaybackDescriptor, window TimeWindow, qualityID string) (SegmentPlan, error) {
	set := desc.AdaptationSetByMimeType(api.MimeTypeTransportStream)
	if set == nil {
		return SegmentPlan{}, ErrNoAdaptationSet
	}
	rep, err := selectRepresentation(set.Representation, qualityID)
	if err != nil {
		return SegmentPlan{}, err
	}
	if len(rep.BaseURL) == 0 || rep.BaseURL[0].Value == "" {
		return SegmentPlan{}, ErrNoBaseURL
	}
	template := rep.SegmentTemplate
	if template == nil || template.Media == "" {
		return SegmentPlan{}, ErrNoSegmentTemplate
	}
	if template.SegmentTimeline == nil || len(template.SegmentTimeline.S) == 0 {
		return SegmentPlan{}, ErrNoSegmentTimeline
	}

	timescale := float64(defaultTimescale)
	if template.Timescale != nil && *template.Timescale > 0 {
		timescale = float64(*template.Timescale)
	}

	start := util.ParseTimeTag(window.Start)
	end := math.MaxFloat64
	if window.End != "" {
		end = util.ParseTimeTag(window.End)
	}

	base := rep.BaseURL[0].Value
	var plan SegmentPlan
	cursor := 0.0
	number := 1
scan:
	for _, entry := range template.SegmentTimeline.S {
		duration := float64(entry.Duration) / timescale
		count := int64(1)
		if entry.Repeat >= 0 {
			count = entry.Repeat + 1
		}
		for i := int64(0); i < count; i++ {
			if cursor+duration >= start && cursor <= end {
				plan.URLs = append(plan.URLs, base+expandMediaTemplate(template.Media, rep.ID, number))
			}
			cursor += duration
			number++
			if cursor > end {
				break scan
			}
		}
	}
	return plan, nil
}

// expandMediaTemplate substitutes the template macros the service emits.
func expandMediaTemplate(media, representationID string, number int) string {
	s := strings.ReplaceAll(media, "$RepresentationID$", representationID)
	s = strings.ReplaceAll(s, "$Number%06d$", fmt.Sprintf("%06d", number))
	s = strings.ReplaceAll(s, "$Number$", strconv.Itoa(number))
	return s
}

func selectRepresentation(reps []api.Representation, qualityID string) (*api.Representation, error) {
	if len(reps) == 0 {
		return nil, ErrNoRepresentation
	}
	if qualityID != "" {
		for i := range reps {
			if reps[i].ID == qualityID {
				return &reps[i], nil
			}
		}
		return nil, fmt.Errorf("%w: %q", ErrQualityNotFound, qualityID)
	}
	best := &reps[0]
	for i := range reps {
		if reps[i].Bandwidth > best.Bandwidth {
			best = &reps[i]
		}
	}
	return best, nil
}
