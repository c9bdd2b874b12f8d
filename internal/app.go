package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/narrate/internal/catalog"
	"github.com/starford/narrate/internal/narrator"
	"github.com/starford/narrate/internal/speech"
	"github.com/starford/narrate/internal/storage"
)

// App holds the components shared by every command.
type App struct {
	Config   *Config
	Store    *storage.FS
	Catalog  *catalog.DB // nil when the catalog is disabled
	Narrator *narrator.Service
	Logger   *slog.Logger
}

// Build wires storage, the catalog and the speech tools from cfg.
func Build(cfg *Config, logger *slog.Logger) (*App, error) {
	store, err := storage.NewFS(cfg.Site.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	app := &App{Config: cfg, Store: store, Logger: logger}

	var cat catalog.Catalog
	if cfg.Catalog.Path != "" {
		db, err := catalog.Open(cfg.Catalog.Path)
		if err != nil {
			return nil, fmt.Errorf("init catalog: %w", err)
		}
		app.Catalog = db
		cat = db
	}

	tools := narrator.Tools{
		Synthesizer: &speech.Kokoro{
			Command:  cfg.Narration.SynthCommand,
			Model:    cfg.Narration.Model,
			LangCode: cfg.Narration.LangCode,
		},
		Converter: &speech.FFmpeg{
			Path:        cfg.Narration.FFmpegPath,
			BitrateKbps: cfg.Audio.BitrateKbps,
			SampleRate:  cfg.Audio.SampleRate,
		},
		Tagger: speech.ID3{},
	}
	settings := narrator.Settings{
		AudioDir:    cfg.Audio.Dir,
		URLPrefix:   cfg.Audio.URLPrefix,
		BitrateKbps: cfg.Audio.BitrateKbps,
		Tags: speech.Tags{
			Author: cfg.Tags.Author,
			Album:  cfg.Tags.Album,
			Genre:  cfg.Tags.Genre,
		},
		Defaults: narrator.Options{
			Voice:    cfg.Narration.Voice,
			Speed:    cfg.Narration.Speed,
			MinWords: cfg.Narration.MinWords,
		},
	}
	app.Narrator = narrator.NewService(store, cat, tools, settings, logger)
	return app, nil
}

// Close releases the catalog.
func (a *App) Close() error {
	if a.Catalog != nil {
		return a.Catalog.Close()
	}
	return nil
}

// PostPath converts a path given on the command line, relative to the working
// directory or absolute, into a path relative to the site root.
func (a *App) PostPath(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(a.Store.Root(), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%s is outside the site root %s", arg, a.Store.Root())
	}
	return filepath.ToSlash(rel), nil
}
