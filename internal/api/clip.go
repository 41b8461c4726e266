package api

import (
	"context"
	"fmt"
)

// ClipInfo is the recon result for a clip. Clips are always a single MP4.
type ClipInfo struct {
	UID       string
	Title     string
	Channel   string
	Thumbnail string
	MP4URL    string
}

type clipResponse struct {
	Content *clipContent `json:"content"`
}

type clipContent struct {
	ContentTitle *string       `json:"contentTitle"`
	OwnerChannel *videoChannel `json:"ownerChannel"`
	VideoID      *string       `json:"videoId"`
	InKey        *string       `json:"inKey"`
}

// GetClip fetches clip play-info and follows the playback descriptor to the
// direct MP4 URL.
func (c *Client) GetClip(ctx context.Context, clipUID string) (*ClipInfo, error) {
	url := fmt.Sprintf("%s/service/v1/play-info/clip/%s", c.BaseURL, clipUID)
	var resp clipResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("clip info request failed: %w", err)
	}
	if resp.Content == nil {
		return nil, fmt.Errorf("clip %s: response has no content", clipUID)
	}
	content := resp.Content

	info := &ClipInfo{UID: clipUID, Title: "clip", Channel: "channel"}
	if content.ContentTitle != nil {
		info.Title = *content.ContentTitle
	}
	if content.OwnerChannel != nil && content.OwnerChannel.ChannelName != nil {
		info.Channel = *content.OwnerChannel.ChannelName
	}
	if content.VideoID == nil || content.InKey == nil {
		return nil, fmt.Errorf("clip %s: response has no videoId/inKey", clipUID)
	}

	desc, err := c.GetPlayback(ctx, *content.VideoID, *content.InKey)
	if err != nil {
		return nil, err
	}
	set := desc.AdaptationSetByMimeType(MimeTypeMP4)
	if set == nil || len(set.Representation) == 0 {
		return nil, fmt.Errorf("clip %s: playback descriptor has no MP4 representation", clipUID)
	}
	rep := set.Representation[0]
	if len(rep.BaseURL) == 0 || rep.BaseURL[0].Value == "" {
		return nil, fmt.Errorf("clip %s: MP4 representation has no base URL", clipUID)
	}
	info.MP4URL = rep.BaseURL[0].Value
	info.Thumbnail = desc.ThumbnailURL()
	return info, nil
}
