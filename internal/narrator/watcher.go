package narrator

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/narrate/internal/apperr"
)

// WatchConfig selects the posts a watcher reacts to.
type WatchConfig struct {
	PostsDir string // relative to the site root
	Glob     string // relative to PostsDir
	// Debounce is how long a post must be quiet before it is narrated.
	Debounce time.Duration
	Options  Options
}

// Watch narrates posts under cfg.PostsDir as they are created or saved, until
// ctx is cancelled. New directories are watched as they appear. A post whose
// narration text and voice settings have not changed since the watcher last
// narrated it is ignored, so the watcher's own frontmatter update does not
// trigger another run.
func (s *Service) Watch(ctx context.Context, cfg WatchConfig) error {
	root, err := s.store.Abs(cfg.PostsDir)
	if err != nil {
		return err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	s.logger.Info("watcher: started", slog.String("root", root), slog.String("glob", cfg.Glob))

	ready := make(chan string, 16)
	timers := make(map[string]*time.Timer)
	narrated := make(map[string]string)

	schedule := func(rel string) {
		if t, ok := timers[rel]; ok {
			t.Reset(cfg.Debounce)
			return
		}
		timers[rel] = time.AfterFunc(cfg.Debounce, func() {
			select {
			case ready <- rel:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			for _, t := range timers {
				t.Stop()
			}
			s.logger.Info("watcher: stopped")
			return nil

		case rel := <-ready:
			delete(timers, rel)
			s.narrateChanged(ctx, rel, cfg.Options, narrated)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						s.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			sitePath := path.Join(path.Clean(cfg.PostsDir), filepath.ToSlash(rel))
			if !MatchPost(cfg.PostsDir, cfg.Glob, sitePath) {
				continue
			}
			schedule(sitePath)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func (s *Service) narrateChanged(ctx context.Context, p string, opts Options, narrated map[string]string) {
	preview, err := s.Preview(ctx, p)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return
		}
		s.logger.Warn("watcher: preview failed", slog.String("path", p), slog.String("error", err.Error()))
		return
	}
	sum := s.fingerprint(preview, opts)
	if narrated[p] == sum {
		return
	}

	_, err = s.Narrate(ctx, p, opts)
	switch {
	case err == nil:
		narrated[p] = sum
	case errors.Is(err, apperr.ErrBelowLengthThreshold):
		s.logger.Info("watcher: post too short", slog.String("path", p), slog.String("error", err.Error()))
		narrated[p] = sum
	default:
		s.logger.Warn("watcher: narration failed", slog.String("path", p), slog.String("error", err.Error()))
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
