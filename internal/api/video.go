package api

import (
	"context"
	"encoding/json"
	"fmt"
)

// VideoInfo is the recon result for a VOD. Exactly one addressing scheme is
// populated: MasterURL for HLS live-rewind VODs, VideoKey+InKey for DASH.
type VideoInfo struct {
	ID        string
	Title     string
	Channel   string
	Duration  int64
	Thumbnail string

	MasterURL string
	VideoKey  string
	InKey     string
}

// IsDASH reports whether the VOD must be resolved through the playback
// descriptor rather than an HLS master playlist.
func (v *VideoInfo) IsDASH() bool {
	return v.MasterURL == ""
}

type videoResponse struct {
	Content *videoContent `json:"content"`
}

type videoContent struct {
	VideoTitle             *string       `json:"videoTitle"`
	Channel                *videoChannel `json:"channel"`
	Duration               *int64        `json:"duration"`
	ThumbnailImageURL      *string       `json:"thumbnailImageUrl"`
	LiveRewindPlaybackJSON *string       `json:"liveRewindPlaybackJson"`
	VideoID                *string       `json:"videoId"`
	InKey                  *string       `json:"inKey"`
}

type videoChannel struct {
	ChannelName *string `json:"channelName"`
}

// liveRewindPlayback is the JSON document embedded as a string inside the
// video response.
type liveRewindPlayback struct {
	Media []struct {
		Path string `json:"path"`
	} `json:"media"`
}

// GetVideo fetches VOD metadata and works out how the media is addressed.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*VideoInfo, error) {
	url := fmt.Sprintf("%s/service/v3/videos/%s", c.BaseURL, videoID)
	var resp videoResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("video info request failed: %w", err)
	}
	if resp.Content == nil {
		return nil, fmt.Errorf("video %s: response has no content", videoID)
	}
	content := resp.Content

	info := &VideoInfo{ID: videoID, Title: "video", Channel: "channel"}
	if content.VideoTitle != nil {
		info.Title = *content.VideoTitle
	}
	if content.Channel != nil && content.Channel.ChannelName != nil {
		info.Channel = *content.Channel.ChannelName
	}
	if content.Duration != nil {
		info.Duration = *content.Duration
	}
	if content.ThumbnailImageURL != nil {
		info.Thumbnail = *content.ThumbnailImageURL
	}

	if content.LiveRewindPlaybackJSON != nil {
		var rewind liveRewindPlayback
		if err := json.Unmarshal([]byte(*content.LiveRewindPlaybackJSON), &rewind); err != nil {
			return nil, fmt.Errorf("video %s: malformed rewind playback JSON: %w", videoID, err)
		}
		if len(rewind.Media) == 0 || rewind.Media[0].Path == "" {
			return nil, fmt.Errorf("video %s: rewind playback has no master playlist URL", videoID)
		}
		info.MasterURL = rewind.Media[0].Path
		c.logger().Debugf("video %s addressed via HLS master playlist", videoID)
		return info, nil
	}

	if content.VideoID == nil || content.InKey == nil {
		return nil, fmt.Errorf("video %s: response has neither rewind playback nor videoId/inKey", videoID)
	}
	info.VideoKey = *content.VideoID
	info.InKey = *content.InKey
	c.logger().Debugf("video %s addressed via playback descriptor", videoID)
	return info, nil
}
