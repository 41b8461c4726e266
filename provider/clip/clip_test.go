package clip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	chzzk_archiver "github.com/chzzk-archiver/chzzk-archiver"
	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

func TestExtractClipUID(t *testing.T) {
	assert := assert_.New(t)

	uid, err := ExtractClipUID("https://chzzk.naver.com/clips/AbCdEf123")
	assert.NoError(err)
	assert.Equal("AbCdEf123", uid)

	for _, input := range []string{
		"AbCdEf123",
		"https://example.com/clips/AbCdEf123",
		"https://chzzk.naver.com/video/12345",
		"https://chzzk.naver.com/clips/",
	} {
		_, err := ExtractClipUID(input)
		assert.Error(err, input)
	}
}

func TestClipPipeline(t *testing.T) {
	assert := assert_.New(t)

	clipData := "MP4MP4MP4MP4"
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/service/v1/play-info/clip/abc":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"content": map[string]interface{}{
					"contentTitle": "funny clip",
					"ownerChannel": map[string]string{"channelName": "owner"},
					"videoId":      "K",
					"inKey":        "IK",
				},
			})
		case "/neonplayer/vodplay/v2/playback/K":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"period": []map[string]interface{}{{
					"adaptationSet": []map[string]interface{}{{
						"mimeType": "video/mp4",
						"representation": []map[string]interface{}{{
							"id":      "720p",
							"baseURL": []map[string]string{{"value": server.URL + "/clip.mp4"}},
						}},
					}},
				}},
			})
		case "/clip.mp4":
			fmt.Fprint(w, clipData)
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := api.NewClient(nil)
	client.BaseURL = server.URL
	client.PlaybackURL = server.URL + "/neonplayer/vodplay/v2"

	var stages []progress.Stage
	sink := progress.SinkFunc(func(ev progress.Event) {
		if len(stages) == 0 || stages[len(stages)-1] != ev.Stage {
			stages = append(stages, ev.Stage)
		}
	})

	targetDir := t.TempDir()
	download := chzzk_archiver.NewDownloadBuilder().
		WithClient(client).
		WithEvents(sink).
		WithTargetDir(targetDir).
		Build()
	defer download.Close()

	matched, err := Match("https://chzzk.naver.com/clips/abc")
	require_.NoError(t, err)
	resolved, err := matched.Recon(context.Background(), download)
	require_.NoError(t, err)

	outputPath, err := resolved.Download(download)
	require_.NoError(t, err)
	assert.Equal(filepath.Join(targetDir, "owner_funny clip.mp4"), outputPath)

	data, err := os.ReadFile(outputPath)
	require_.NoError(t, err)
	assert.Equal(clipData, string(data))

	assert.Equal([]progress.Stage{
		progress.StageInfo,
		progress.StageDownloading,
		progress.StageComplete,
	}, stages)
}
