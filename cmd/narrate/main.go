package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	pathpkg "path"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/narrate/internal"
	"github.com/starford/narrate/internal/apperr"
	"github.com/starford/narrate/internal/mcpserver"
	"github.com/starford/narrate/internal/narrator"
	"github.com/starford/narrate/internal/report"
	"github.com/starford/narrate/internal/slug"
	pkgconfig "github.com/starford/narrate/pkg/config"
)

const defaultDebounce = 500 * time.Millisecond

// loadConfig reads the optional config file and applies global overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cmd.IsSet("site") {
		cfg.Site.Root = cmd.String("site")
	}
	if cmd.Bool("verbose") {
		cfg.App.LogLevel = slog.LevelDebug
	}
	return cfg, nil
}

// setup builds the application with a human-readable logger on stderr.
func setup(cmd *cli.Command) (*internal.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)
	return internal.Build(cfg, logger)
}

// postArg resolves the single post argument to a site-relative path.
func postArg(app *internal.App, cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", fmt.Errorf("expected exactly one post file, got %d arguments", cmd.Args().Len())
	}
	return app.PostPath(cmd.Args().First())
}

// runOptions overlays the run flags onto the configured defaults.
func runOptions(app *internal.App, cmd *cli.Command) (narrator.Options, error) {
	opts := app.Narrator.Defaults()
	if cmd.IsSet("voice") {
		opts.Voice = cmd.String("voice")
	}
	if cmd.IsSet("speed") {
		opts.Speed = cmd.Float("speed")
	}
	if cmd.IsSet("min-words") {
		opts.MinWords = int(cmd.Int("min-words"))
	}
	opts.DryRun = cmd.Bool("dry-run")
	opts.SkipFrontmatterUpdate = cmd.Bool("skip-frontmatter-update")
	opts.Force = cmd.Bool("force")
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid run options: %w", err)
	}
	return opts, nil
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "voice",
			Usage:   "Kokoro voice name (default from config, af_heart)",
			Sources: cli.EnvVars("NARRATE_VOICE"),
		},
		&cli.FloatFlag{
			Name:    "speed",
			Usage:   "Speech speed multiplier (default from config, 1.0)",
			Sources: cli.EnvVars("NARRATE_SPEED"),
		},
		&cli.IntFlag{
			Name:  "min-words",
			Usage: "Refuse posts with fewer words (default from config, 300)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Print the narration text and stats without generating audio",
		},
		&cli.BoolFlag{
			Name:  "skip-frontmatter-update",
			Usage: "Generate audio but leave the post file untouched",
		},
		&cli.BoolFlag{
			Name:  "force",
			Usage: "Re-render even when the catalog shows the audio is current",
		},
	}
}

func postAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	path, err := postArg(app, cmd)
	if err != nil {
		return err
	}
	opts, err := runOptions(app, cmd)
	if err != nil {
		return err
	}
	res, err := app.Narrator.Narrate(ctx, path, opts)
	if err != nil {
		return err
	}
	report.New(os.Stdout).Result(res)
	return nil
}

func allAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := runOptions(app, cmd)
	if err != nil {
		return err
	}
	site := app.Config.Site
	items, err := app.Narrator.NarrateAll(ctx, site.PostsDir, site.PostsGlob, opts)
	report.New(os.Stdout).Batch(items)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.Err != nil && !errors.Is(it.Err, apperr.ErrBelowLengthThreshold) {
			return fmt.Errorf("one or more posts failed")
		}
	}
	return nil
}

func previewAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	path, err := postArg(app, cmd)
	if err != nil {
		return err
	}
	p, err := app.Narrator.Preview(ctx, path)
	if err != nil {
		return err
	}
	report.New(os.Stdout).Preview(p)
	return nil
}

func patchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	path, err := postArg(app, cmd)
	if err != nil {
		return err
	}
	url := cmd.String("url")
	if url == "" {
		url = slug.AudioURL(app.Config.Audio.URLPrefix, slug.FromFilename(pathpkg.Base(path)))
	}

	diff, err := app.Narrator.PatchPreview(ctx, path, url)
	if err != nil {
		return err
	}
	report.New(os.Stdout).Diff(diff)
	if cmd.Bool("dry-run") {
		return nil
	}
	return app.Narrator.UpdateFrontmatter(ctx, path, url)
}

func listAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	items, total, err := app.Narrator.List(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
	if err != nil {
		return err
	}
	report.New(os.Stdout).Narrations(items, total)
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := runOptions(app, cmd)
	if err != nil {
		return err
	}
	opts.DryRun = false
	return app.Narrator.Watch(ctx, narrator.WatchConfig{
		PostsDir: app.Config.Site.PostsDir,
		Glob:     app.Config.Site.PostsGlob,
		Debounce: cmd.Duration("debounce"),
		Options:  opts,
	})
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithWatcher(cmd.Bool("watch"))); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(_ context.Context, cmd *cli.Command) error {
	app, err := setup(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	site := app.Config.Site
	return mcpserver.New(app.Narrator, app.Store, site.PostsDir, site.PostsGlob).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "narrate",
		Usage: "Turn Markdown blog posts into MP3 narrations and link them from the post frontmatter",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (optional; built-in defaults otherwise)",
				Sources: cli.EnvVars("NARRATE_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "site",
				Usage:   "Site root directory",
				Sources: cli.EnvVars("NARRATE_SITE_ROOT"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "post",
				Usage:     "Narrate a single post",
				ArgsUsage: "<post.md>",
				Flags:     runFlags(),
				Action:    postAction,
			},
			{
				Name:   "all",
				Usage:  "Narrate every post under the posts directory",
				Flags:  runFlags(),
				Action: allAction,
			},
			{
				Name:      "preview",
				Usage:     "Print the narration text of a post with its character and word counts",
				ArgsUsage: "<post.md>",
				Action:    previewAction,
			},
			{
				Name:      "patch",
				Usage:     "Set the audio field of a post without generating audio",
				ArgsUsage: "<post.md>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Audio URL to record (default derived from the post slug)",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Only print the diff",
					},
				},
				Action: patchAction,
			},
			{
				Name:  "list",
				Usage: "List generated narrations from the catalog",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 50, Usage: "Maximum entries"},
					&cli.IntFlag{Name: "offset", Usage: "Entries to skip"},
				},
				Action: listAction,
			},
			{
				Name:  "watch",
				Usage: "Narrate posts as they are saved",
				Flags: append(runFlags(), &cli.DurationFlag{
					Name:  "debounce",
					Value: defaultDebounce,
					Usage: "Quiet period before a saved post is narrated",
				}),
				Action: watchAction,
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API with a live event stream",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Usage:   "HTTP port (default from config, 8085)",
						Sources: cli.EnvVars("NARRATE_PORT"),
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Also narrate posts as they are saved",
					},
				},
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve narration tools over MCP on stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("narrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
