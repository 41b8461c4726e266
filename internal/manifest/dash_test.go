package manifest

import (
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
)

func int64ptr(v int64) *int64 { return &v }

func testDescriptor(timeline []api.TimelineEntry, reps ...api.Representation) *api.PlaybackDescriptor {
	for i := range reps {
		if reps[i].SegmentTemplate == nil {
			reps[i].SegmentTemplate = &api.SegmentTemplate{
				Media:           "/segments/$RepresentationID$/seg_$Number%06d$.ts",
				Timescale:       int64ptr(1000),
				SegmentTimeline: &api.SegmentTimeline{S: timeline},
			}
		}
		if len(reps[i].BaseURL) == 0 {
			reps[i].BaseURL = []api.ValueWrapper{{Value: "https://vod.example"}}
		}
	}
	return &api.PlaybackDescriptor{
		Period: []api.Period{{
			AdaptationSet: []api.AdaptationSet{{
				MimeType:       api.MimeTypeTransportStream,
				Representation: reps,
			}},
		}},
	}
}

func TestDASHPlanRepeatExpansion(t *testing.T) {
	assert := assert_.New(t)

	desc := testDescriptor(
		[]api.TimelineEntry{{Duration: 2000, Repeat: 3}},
		api.Representation{ID: "hd", Bandwidth: 5_000_000},
	)
	plan, err := planFromDescriptor(desc, TimeWindow{}, "")
	require_.NoError(t, err)

	// d=2000 r=3 at timescale 1000 expands to 4 two-second segments,
	// numbered from 1
	require_.Equal(t, 4, plan.Len())
	assert.Equal("https://vod.example/segments/hd/seg_000001.ts", plan.URLs[0])
	assert.Equal("https://vod.example/segments/hd/seg_000004.ts", plan.URLs[3])
}

func TestDASHPlanWindow(t *testing.T) {
	assert := assert_.New(t)

	desc := testDescriptor(
		[]api.TimelineEntry{{Duration: 4000, Repeat: 3}},
		api.Representation{ID: "hd"},
	)
	// Same window rule as HLS: [2,10] over four 4s segments keeps the
	// first three, and numbering still reflects absolute position
	plan, err := planFromDescriptor(desc, TimeWindow{Start: "2", End: "10"}, "")
	require_.NoError(t, err)
	require_.Equal(t, 3, plan.Len())
	assert.Equal("https://vod.example/segments/hd/seg_000001.ts", plan.URLs[0])
	assert.Equal("https://vod.example/segments/hd/seg_000003.ts", plan.URLs[2])
}

func TestDASHPlanNegativeRepeat(t *testing.T) {
	require := require_.New(t)

	desc := testDescriptor(
		[]api.TimelineEntry{{Duration: 2000, Repeat: -1}, {Duration: 2000, Repeat: 0}},
		api.Representation{ID: "hd"},
	)
	plan, err := planFromDescriptor(desc, TimeWindow{}, "")
	require.NoError(err)

	// A negative repeat still yields exactly one segment
	require.Equal(2, plan.Len())
}

func TestDASHPlanDefaultTimescale(t *testing.T) {
	require := require_.New(t)

	desc := testDescriptor(nil, api.Representation{ID: "hd"})
	desc.Period[0].AdaptationSet[0].Representation[0].SegmentTemplate = &api.SegmentTemplate{
		Media:           "/seg_$Number$.ts",
		SegmentTimeline: &api.SegmentTimeline{S: []api.TimelineEntry{{Duration: 4000, Repeat: 1}}},
	}
	// Without a timescale, durations are in milliseconds: two 4s segments,
	// so an end limit of 4s keeps only the first
	plan, err := planFromDescriptor(desc, TimeWindow{End: "3"}, "")
	require.NoError(err)
	require.Equal(1, plan.Len())
	require.Equal("https://vod.example/seg_1.ts", plan.URLs[0])
}

func TestDASHRepresentationSelection(t *testing.T) {
	assert := assert_.New(t)

	timeline := []api.TimelineEntry{{Duration: 1000, Repeat: 0}}
	desc := testDescriptor(timeline,
		api.Representation{ID: "low", Bandwidth: 1_000_000},
		api.Representation{ID: "high", Bandwidth: 8_000_000},
		api.Representation{ID: "alsoHigh", Bandwidth: 8_000_000},
	)

	// Default picks the highest bandwidth, first listed winning ties
	plan, err := planFromDescriptor(desc, TimeWindow{}, "")
	require_.NoError(t, err)
	assert.Contains(plan.URLs[0], "/segments/high/")

	// Explicit id overrides
	plan, err = planFromDescriptor(desc, TimeWindow{}, "low")
	require_.NoError(t, err)
	assert.Contains(plan.URLs[0], "/segments/low/")

	// Unknown id is an error, not a fallback
	_, err = planFromDescriptor(desc, TimeWindow{}, "4k")
	assert.ErrorIs(err, ErrQualityNotFound)
}

func TestDASHPlanMissingPieces(t *testing.T) {
	assert := assert_.New(t)

	_, err := planFromDescriptor(&api.PlaybackDescriptor{}, TimeWindow{}, "")
	assert.ErrorIs(err, ErrNoAdaptationSet)

	desc := testDescriptor([]api.TimelineEntry{{Duration: 1000}}, api.Representation{ID: "hd"})
	desc.Period[0].AdaptationSet[0].Representation = nil
	_, err = planFromDescriptor(desc, TimeWindow{}, "")
	assert.ErrorIs(err, ErrNoRepresentation)

	desc = testDescriptor([]api.TimelineEntry{{Duration: 1000}}, api.Representation{ID: "hd"})
	desc.Period[0].AdaptationSet[0].Representation[0].SegmentTemplate.SegmentTimeline = nil
	_, err = planFromDescriptor(desc, TimeWindow{}, "")
	assert.ErrorIs(err, ErrNoSegmentTimeline)

	desc = testDescriptor([]api.TimelineEntry{{Duration: 1000}}, api.Representation{ID: "hd"})
	desc.Period[0].AdaptationSet[0].Representation[0].BaseURL = nil
	_, err = planFromDescriptor(desc, TimeWindow{}, "")
	assert.ErrorIs(err, ErrNoBaseURL)
}

func TestEnumerateDASH(t *testing.T) {
	assert := assert_.New(t)

	timeline := []api.TimelineEntry{{Duration: 1000, Repeat: 0}}
	desc := testDescriptor(timeline,
		api.Representation{ID: "480p", Width: 854, Height: 480, Bandwidth: 1_400_000},
		api.Representation{ID: "1080p", Width: 1920, Height: 1080, Bandwidth: 8_000_000},
	)
	qualities, err := EnumerateDASH(desc)
	require_.NoError(t, err)
	require_.Len(t, qualities, 2)
	assert.Equal("1080p", qualities[0].ID)
	assert.Equal("1080p (8.0Mbps)", qualities[0].Label)
	assert.Equal("480p (1.4Mbps)", qualities[1].Label)
}
