package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	chzzk_archiver "github.com/chzzk-archiver/chzzk-archiver"
	"github.com/chzzk-archiver/chzzk-archiver/database"
	"github.com/chzzk-archiver/chzzk-archiver/internal/api"
	"github.com/chzzk-archiver/chzzk-archiver/internal/credstore"
	"github.com/chzzk-archiver/chzzk-archiver/internal/manifest"
	"github.com/chzzk-archiver/chzzk-archiver/internal/progress"
	"github.com/chzzk-archiver/chzzk-archiver/internal/remux"
	_ "github.com/chzzk-archiver/chzzk-archiver/providers"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "chzzk-archiver",
		Usage: "archive VODs and clips from chzzk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "credentials",
				Value: defaultCredentialsPath(),
				Usage: "credential store `FILE`",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				config.Level.SetLevel(zapcore.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			downloadCommand(ctx),
			clipCommand(ctx),
			qualitiesCommand(ctx),
			loginCommand(),
			logoutCommand(),
			historyCommand(),
		},
		HideHelpCommand: true,
	}

	result := make(chan error, 1)
	go func() {
		result <- app.RunContext(ctx, os.Args)
	}()

	select {
	case err = <-result:
	case <-ctx.Done():
		stop()
		err = <-result
	}
	if err != nil {
		logger.Fatal(err.Error())
	}
}

func defaultCredentialsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.db"
	}
	return filepath.Join(configDir, "chzzk-archiver", "credentials.db")
}

func downloadCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "download a VOD or clip",
		ArgsUsage: "URL|ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Value:   ".",
				Usage:   "save downloads to `DIR`",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "window start time tag (`H:M:S`, M:S or S)",
			},
			&cli.StringFlag{
				Name:  "end",
				Usage: "window end time tag (empty means the full duration)",
			},
			&cli.StringFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "quality `ID` as printed by the qualities command",
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: "ffmpeg `EXECUTABLE` (default: search PATH)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "record finished downloads in sqlite `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL or ID", 2)
			}
			match, err := chzzk_archiver.DefaultProviderRegistry.Match(c.Args().First())
			if err != nil {
				return err
			}
			return runDownload(ctx, c, match)
		},
	}
}

func clipCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "clip",
		Usage:     "download a clip",
		ArgsUsage: "URL|ID",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Value:   ".",
				Usage:   "save downloads to `DIR`",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "record finished downloads in sqlite `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL or ID", 2)
			}
			input := c.Args().First()
			// Bare clip IDs are ambiguous for the open matcher, but here
			// the user has said what they mean
			if !strings.Contains(input, "/") {
				input = fmt.Sprintf("https://chzzk.naver.com/clips/%s", input)
			}
			match, err := chzzk_archiver.DefaultProviderRegistry.MatchWith("clip", input)
			if err != nil {
				return err
			}
			return runDownload(ctx, c, match)
		},
	}
}

func runDownload(ctx context.Context, c *cli.Context, match *chzzk_archiver.Match) error {
	logger := zap.S()
	logger.Infof("Matched %q as %s: %s", c.Args().First(), match.ProviderName, match.Source.URL())

	var err error
	ffmpeg := c.String("ffmpeg")
	if ffmpeg == "" {
		// Clips stream straight to MP4 and never need ffmpeg
		if ffmpeg, err = (remux.Locator{}).Find(); err != nil && match.ProviderName != "clip" {
			return err
		}
	}

	events := progress.NewPublisher()
	done := make(chan struct{})
	go func() {
		defer close(done)
		consumeEvents(events.Subscribe())
	}()

	download := chzzk_archiver.NewDownloadBuilder().
		WithContext(ctx).
		WithEvents(events).
		WithClient(api.NewClient(loadCredentials(c))).
		WithTargetDir(c.String("target")).
		WithFFmpeg(ffmpeg).
		WithQuality(c.String("quality")).
		WithTimeWindow(manifest.TimeWindow{Start: c.String("start"), End: c.String("end")}).
		Build()
	defer download.Close()

	resolved, err := match.Source.Recon(ctx, download)
	if err != nil {
		events.Close()
		<-done
		return err
	}

	outputPath, err := resolved.Download(download)
	events.Close()
	<-done
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	logger.Infof("Saved %s", outputPath)

	if dbPath := c.String("db"); dbPath != "" {
		recordArchive(dbPath, match, resolved, outputPath, c)
	}
	return nil
}

// consumeEvents renders progress events until the channel closes: a bar for
// the downloading stage, log lines for everything else, and field-level
// diffs between consecutive events at debug level.
func consumeEvents(events <-chan progress.Event) {
	logger := zap.S().Named("events")
	var bar *progressbar.ProgressBar
	var prev *progress.Event
	for ev := range events {
		if prev != nil {
			if changes, err := diff.Diff(*prev, ev); err == nil {
				for _, change := range changes {
					logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
				}
			}
		}
		evCopy := ev
		prev = &evCopy

		switch ev.Stage {
		case progress.StageDownloading:
			if bar == nil {
				bar = progressbar.Default(int64(ev.Total), "downloading")
			}
			if bar.GetMax() != ev.Total {
				bar.ChangeMax(ev.Total)
			}
			_ = bar.Set(ev.Current)
		default:
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
			logger.Infof("[%s] %s", ev.Stage, ev.Message)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
}

// loadCredentials returns stored credentials, or nil for an anonymous
// session. Store problems are logged, never fatal.
func loadCredentials(c *cli.Context) *credstore.Credentials {
	logger := zap.S()
	store, err := credstore.Open(c.String("credentials"))
	if err != nil {
		logger.Warnf("failed to open credential store: %v", err)
		return nil
	}
	defer store.Close()
	creds, err := store.Load()
	if err != nil {
		if !errors.Is(err, credstore.ErrNoCredentials) {
			logger.Warnf("failed to load credentials: %v", err)
		}
		return nil
	}
	logger.Debug("using stored credentials")
	return creds
}

func recordArchive(dbPath string, match *chzzk_archiver.Match, resolved chzzk_archiver.ResolvedSource, outputPath string, c *cli.Context) {
	logger := zap.S()
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		logger.Warnf("failed to open history database: %v", err)
		return
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		logger.Warnf("failed to migrate history database: %v", err)
		return
	}

	info := resolved.Info()
	if abs, err := filepath.Abs(outputPath); err == nil {
		outputPath = abs
	}
	err = db.RecordArchive(&database.Archive{
		ContentID:  info.ID(),
		Kind:       match.ProviderName,
		Channel:    info.Channel(),
		Title:      info.Title(),
		OutputPath: outputPath,
		StartTag:   c.String("start"),
		EndTag:     c.String("end"),
	})
	if err != nil {
		logger.Warnf("failed to record download: %v", err)
	}
}

func qualitiesCommand(ctx context.Context) *cli.Command {
	return &cli.Command{
		Name:      "qualities",
		Usage:     "list the selectable qualities of a VOD",
		ArgsUsage: "URL|ID",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL or ID", 2)
			}
			return runQualities(ctx, c)
		},
	}
}

func runQualities(ctx context.Context, c *cli.Context) error {
	match, err := chzzk_archiver.DefaultProviderRegistry.MatchWith("vod", c.Args().First())
	if err != nil {
		return err
	}

	client := api.NewClient(loadCredentials(c))
	download := chzzk_archiver.NewDownloadBuilder().
		WithContext(ctx).
		WithClient(client).
		Build()
	defer download.Close()

	resolved, err := match.Source.Recon(ctx, download)
	if err != nil {
		return err
	}
	vodResolved, ok := resolved.(chzzk_archiver.QualityEnumerator)
	if !ok {
		return fmt.Errorf("%s does not expose qualities", match.Source.URL())
	}
	qualities, err := vodResolved.Qualities(ctx, download)
	if err != nil {
		return err
	}

	fmt.Printf("%-18s %s\n", "QUALITY", "ID")
	for _, q := range qualities {
		fmt.Printf("%-18s %s\n", q.Label, q.ID)
	}
	return nil
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "store the NID_AUT/NID_SES session cookie pair",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "aut", Usage: "NID_AUT cookie `VALUE`", Required: true},
			&cli.StringFlag{Name: "ses", Usage: "NID_SES cookie `VALUE`", Required: true},
		},
		Action: func(c *cli.Context) error {
			path := c.String("credentials")
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return err
			}
			store, err := credstore.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Save(&credstore.Credentials{Aut: c.String("aut"), Ses: c.String("ses")}); err != nil {
				return err
			}
			zap.S().Info("credentials saved")
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "delete the stored session cookies",
		Action: func(c *cli.Context) error {
			store, err := credstore.Open(c.String("credentials"))
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Delete(); err != nil {
				return err
			}
			zap.S().Info("credentials deleted")
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list recorded downloads",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "history sqlite `FILE`", Required: true},
			&cli.StringFlag{Name: "channel", Usage: "only show downloads from `CHANNEL`"},
		},
		Action: func(c *cli.Context) error {
			db, err := database.NewDatabase(c.String("db"))
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(); err != nil {
				return err
			}

			var archives []database.Archive
			if channel := c.String("channel"); channel != "" {
				archives, err = db.GetArchivesByChannel(channel)
			} else {
				archives, err = db.GetAllArchives()
			}
			if err != nil {
				return err
			}

			for _, a := range archives {
				fmt.Printf("%s  %-4s  %-20s  %s\n",
					a.CreatedAt.Local().Format("2006-01-02 15:04"), a.Kind, a.Channel, a.Title)
			}
			return nil
		},
	}
}
