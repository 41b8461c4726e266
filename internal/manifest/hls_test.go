package manifest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
)

const testMasterPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=2000000,RESOLUTION=1280x720
720p/chunklist.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=8000000,RESOLUTION=1920x1080
1080p/chunklist.m3u8
`

func fourSegmentPlaylist(withMap bool) string {
	s := "#EXTM3U\n#EXT-X-VERSION:6\n#EXT-X-TARGETDURATION:4\n#EXT-X-MEDIA-SEQUENCE:0\n"
	if withMap {
		s += "#EXT-X-MAP:URI=\"init.mp4\"\n"
	}
	for i := 0; i < 4; i++ {
		s += fmt.Sprintf("#EXTINF:4.000,\nseg%d.m4s\n", i)
	}
	return s + "#EXT-X-ENDLIST\n"
}

func newPlaylistServer(t *testing.T, withMap bool) (*api.Client, string) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vod/master.m3u8":
			fmt.Fprint(w, testMasterPlaylist)
		case "/vod/1080p/chunklist.m3u8", "/vod/720p/chunklist.m3u8":
			fmt.Fprint(w, fourSegmentPlaylist(withMap))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return api.NewClient(nil), server.URL + "/vod/master.m3u8"
}

func TestResolveHLSFullWindow(t *testing.T) {
	assert := assert_.New(t)

	client, masterURL := newPlaylistServer(t, false)
	plan, err := ResolveHLS(context.Background(), client, masterURL, TimeWindow{}, "")
	require_.NoError(t, err)

	// Last listed variant wins by default
	require_.Equal(t, 4, plan.Len())
	for i, u := range plan.URLs {
		assert.Contains(u, "/vod/1080p/")
		assert.Contains(u, fmt.Sprintf("seg%d.m4s", i))
	}
}

func TestResolveHLSWindow(t *testing.T) {
	assert := assert_.New(t)

	client, masterURL := newPlaylistServer(t, false)
	// Segments cover [0,4) [4,8) [8,12) [12,16); window [2,10] overlaps
	// the first three only
	plan, err := ResolveHLS(context.Background(), client, masterURL, TimeWindow{Start: "2", End: "10"}, "")
	require_.NoError(t, err)
	require_.Equal(t, 3, plan.Len())
	for i, u := range plan.URLs {
		assert.Contains(u, fmt.Sprintf("seg%d.m4s", i))
	}
}

func TestResolveHLSInitSegmentFirst(t *testing.T) {
	assert := assert_.New(t)

	client, masterURL := newPlaylistServer(t, true)
	plan, err := ResolveHLS(context.Background(), client, masterURL, TimeWindow{Start: "2", End: "10"}, "")
	require_.NoError(t, err)

	// Init segment always leads the plan, even for a mid-stream window
	require_.Equal(t, 4, plan.Len())
	assert.Contains(plan.URLs[0], "init.mp4")
	assert.Contains(plan.URLs[1], "seg0.m4s")
}

func TestResolveHLSExplicitQuality(t *testing.T) {
	assert := assert_.New(t)

	client, masterURL := newPlaylistServer(t, false)
	plan, err := ResolveHLS(context.Background(), client, masterURL, TimeWindow{}, "720p/chunklist.m3u8")
	require_.NoError(t, err)
	for _, u := range plan.URLs {
		assert.Contains(u, "/vod/720p/")
	}
}

func TestResolveHLSNoVariants(t *testing.T) {
	assert := assert_.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXT-X-VERSION:3\n")
	}))
	defer server.Close()

	_, err := ResolveHLS(context.Background(), api.NewClient(nil), server.URL+"/master.m3u8", TimeWindow{}, "")
	assert.Error(err)
}

func TestResolveHLSEmptyVariant(t *testing.T) {
	assert := assert_.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/master.m3u8":
			fmt.Fprint(w, "#EXTM3U\n#EXT-X-STREAM-INF:BANDWIDTH=1000\nempty.m3u8\n")
		default:
			fmt.Fprint(w, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:4\n#EXT-X-ENDLIST\n")
		}
	}))
	defer server.Close()

	_, err := ResolveHLS(context.Background(), api.NewClient(nil), server.URL+"/master.m3u8", TimeWindow{}, "")
	assert.ErrorIs(err, ErrNoSegments)
}

func TestEnumerateHLS(t *testing.T) {
	assert := assert_.New(t)

	client, masterURL := newPlaylistServer(t, false)
	qualities, err := EnumerateHLS(context.Background(), client, masterURL)
	require_.NoError(t, err)
	require_.Len(t, qualities, 2)

	// Sorted by descending bandwidth
	assert.Equal("1080p/chunklist.m3u8", qualities[0].ID)
	assert.Equal(1080, qualities[0].Height)
	assert.Equal("1080p (8.0Mbps)", qualities[0].Label)
	assert.Equal("720p (2.0Mbps)", qualities[1].Label)
}
