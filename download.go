package chzzk_archiver

import (
	"context"

	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/manifest"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
)

// Download is the execution environment a ResolvedSource downloads in:
// context, API client, progress sink, output naming and the user's
// selections. Build one with NewDownloadBuilder.
type Download struct {
	ctx     context.Context
	cancel  context.CancelFunc
	events  progress.Sink
	client  *api.Client
	output  OutputConfig
	ffmpeg  string
	quality string
	window  manifest.TimeWindow
}

func (d *Download) Context() context.Context { return d.ctx }

func (d *Download) Events() progress.Sink { return d.events }

func (d *Download) Client() *api.Client { return d.client }

func (d *Download) Output() OutputConfig { return d.output }

func (d *Download) FFmpeg() string { return d.ffmpeg }

func (d *Download) Quality() string { return d.quality }

func (d *Download) Window() manifest.TimeWindow { return d.window }

// Publish forwards an event to the download's sink.
func (d *Download) Publish(ev progress.Event) {
	d.events.Publish(ev)
}

// Cancel aborts the download's context.
func (d *Download) Cancel() {
	d.cancel()
}

func (d *Download) Close() error {
	d.cancel()
	return nil
}

type DownloadBuilder struct {
	ctx       context.Context
	events    progress.Sink
	client    *api.Client
	targetDir string
	ffmpeg    string
	quality   string
	window    manifest.TimeWindow
}

func NewDownloadBuilder() *DownloadBuilder {
	return &DownloadBuilder{
		ctx:       context.Background(),
		events:    progress.Nop,
		targetDir: ".",
	}
}

func (b *DownloadBuilder) WithContext(ctx context.Context) *DownloadBuilder {
	b.ctx = ctx
	return b
}

func (b *DownloadBuilder) WithEvents(events progress.Sink) *DownloadBuilder {
	b.events = events
	return b
}

func (b *DownloadBuilder) WithClient(client *api.Client) *DownloadBuilder {
	b.client = client
	return b
}

func (b *DownloadBuilder) WithTargetDir(dir string) *DownloadBuilder {
	b.targetDir = dir
	return b
}

func (b *DownloadBuilder) WithFFmpeg(path string) *DownloadBuilder {
	b.ffmpeg = path
	return b
}

func (b *DownloadBuilder) WithQuality(quality string) *DownloadBuilder {
	b.quality = quality
	return b
}

func (b *DownloadBuilder) WithTimeWindow(window manifest.TimeWindow) *DownloadBuilder {
	b.window = window
	return b
}

func (b *DownloadBuilder) Build() *Download {
	d := &Download{
		events:  b.events,
		client:  b.client,
		output:  NewOutputConfig(b.targetDir),
		ffmpeg:  b.ffmpeg,
		quality: b.quality,
		window:  b.window,
	}
	d.ctx, d.cancel = context.WithCancel(b.ctx)
	if d.events == nil {
		d.events = progress.Nop
	}
	if d.client == nil {
		d.client = api.NewClient(nil)
	}
	return d
}
