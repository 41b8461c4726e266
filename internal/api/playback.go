package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Adaptation set mime types the service uses to distinguish VOD transport
// streams from clip MP4s.
const (
	MimeTypeTransportStream = "video/mp2t"
	MimeTypeMP4             = "video/mp4"
)

// PlaybackDescriptor is the DASH-shaped document returned by the playback
// endpoint for key-addressed media.
type PlaybackDescriptor struct {
	Period []Period `json:"period"`
}

type Period struct {
	AdaptationSet        []AdaptationSet        `json:"adaptationSet"`
	SupplementalProperty []SupplementalProperty `json:"supplementalProperty"`
}

type AdaptationSet struct {
	MimeType       string           `json:"mimeType"`
	Representation []Representation `json:"representation"`
}

type Representation struct {
	ID              string           `json:"id"`
	Width           int              `json:"width"`
	Height          int              `json:"height"`
	Bandwidth       int64            `json:"bandwidth"`
	BaseURL         []ValueWrapper   `json:"baseURL"`
	SegmentTemplate *SegmentTemplate `json:"segmentTemplate"`
}

type ValueWrapper struct {
	Value string `json:"value"`
}

type SegmentTemplate struct {
	Media           string           `json:"media"`
	Timescale       *int64           `json:"timescale"`
	SegmentTimeline *SegmentTimeline `json:"segmentTimeline"`
}

type SegmentTimeline struct {
	S []TimelineEntry `json:"s"`
}

// TimelineEntry describes Repeat+1 consecutive segments of Duration ticks
// each. Repeat may be negative in the wild; consumers clamp it.
type TimelineEntry struct {
	Duration int64 `json:"d"`
	Repeat   int64 `json:"r"`
}

type SupplementalProperty struct {
	Any []AnyProperty `json:"any"`
}

type AnyProperty struct {
	ThumbnailSet []ThumbnailSet `json:"thumbnailSet"`
}

type ThumbnailSet struct {
	Thumbnail []Thumbnail `json:"thumbnail"`
}

type Thumbnail struct {
	Source *ValueWrapper `json:"source"`
}

// AdaptationSetByMimeType returns the first matching adaptation set of the
// first period, or nil.
func (p *PlaybackDescriptor) AdaptationSetByMimeType(mimeType string) *AdaptationSet {
	if len(p.Period) == 0 {
		return nil
	}
	sets := p.Period[0].AdaptationSet
	for i := range sets {
		if sets[i].MimeType == mimeType {
			return &sets[i]
		}
	}
	return nil
}

// ThumbnailURL digs the first thumbnail source out of the descriptor's
// supplemental properties, with any template query suffix trimmed. Empty
// when the descriptor carries none.
func (p *PlaybackDescriptor) ThumbnailURL() string {
	if len(p.Period) == 0 {
		return ""
	}
	for _, prop := range p.Period[0].SupplementalProperty {
		for _, any := range prop.Any {
			for _, set := range any.ThumbnailSet {
				for _, thumb := range set.Thumbnail {
					if thumb.Source != nil && thumb.Source.Value != "" {
						src := thumb.Source.Value
						if q := strings.Index(src, "?type="); q >= 0 {
							src = src[:q]
						}
						return src
					}
				}
			}
		}
	}
	return ""
}

// GetPlayback fetches the playback descriptor for a key-addressed video.
func (c *Client) GetPlayback(ctx context.Context, videoKey, inKey string) (*PlaybackDescriptor, error) {
	reqURL := fmt.Sprintf("%s/playback/%s?key=%s", c.PlaybackURL, videoKey, url.QueryEscape(inKey))
	var desc PlaybackDescriptor
	if err := c.getJSON(ctx, reqURL, &desc); err != nil {
		return nil, fmt.Errorf("playback descriptor request failed: %w", err)
	}
	return &desc, nil
}
