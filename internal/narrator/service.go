// Package narrator drives one narration run end to end: read the post,
// normalize its body, synthesize and tag the audio, then record the audio
// location back into the post's frontmatter.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/narrate/internal/apperr"
	"github.com/starford/narrate/internal/catalog"
	"github.com/starford/narrate/internal/checksum"
	"github.com/starford/narrate/internal/frontmatter"
	"github.com/starford/narrate/internal/models"
	"github.com/starford/narrate/internal/narration"
	"github.com/starford/narrate/internal/slug"
	"github.com/starford/narrate/internal/speech"
	"github.com/starford/narrate/internal/storage"
)

// Event kinds passed to an EventCallback.
const (
	EventStarted   = "started"
	EventCompleted = "completed"
	EventSkipped   = "skipped"
	EventFailed    = "failed"
)

// EventCallback is called as a narration run progresses.
type EventCallback func(kind string, path string)

// Options tune a single run.
type Options struct {
	Voice                 string  `json:"voice"`
	Speed                 float64 `json:"speed"`
	MinWords              int     `json:"min_words"`
	DryRun                bool    `json:"dry_run"`
	SkipFrontmatterUpdate bool    `json:"skip_frontmatter_update"`
	// Force re-synthesizes even when the catalog shows the audio is current.
	Force bool `json:"force"`
}

// Validate checks the voice settings every entry point hands to Narrate.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Voice, validation.Required),
		validation.Field(&o.Speed, validation.Required, validation.Min(0.25), validation.Max(4.0)),
		validation.Field(&o.MinWords, validation.Min(0)),
	)
}

// Settings are fixed for the lifetime of a Service.
type Settings struct {
	AudioDir    string // relative to the site root
	URLPrefix   string
	BitrateKbps int
	Tags        speech.Tags // Title is filled per post
	Defaults    Options
}

// Tools bundles the external collaborators.
type Tools struct {
	Synthesizer speech.Synthesizer
	Converter   speech.Converter
	Tagger      speech.Tagger
}

// Preview is the narration text derived from a post, before any audio exists.
type Preview struct {
	Path        string         `json:"path"`
	Slug        string         `json:"slug"`
	Title       string         `json:"title"`
	AudioURL    string         `json:"audio_url"`
	Text        string         `json:"text"`
	Words       int            `json:"words"`
	Chars       int            `json:"chars"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Result reports the outcome of Narrate.
type Result struct {
	Preview
	RunID              string        `json:"run_id"`
	DryRun             bool          `json:"dry_run"`
	Skipped            bool          `json:"skipped"`
	MP3Path            string        `json:"mp3_path,omitempty"`
	SizeBytes          int64         `json:"size_bytes,omitempty"`
	Duration           time.Duration `json:"duration,omitempty"`
	FrontmatterUpdated bool          `json:"frontmatter_updated"`
}

// Service coordinates storage, the catalog and the speech tools.
type Service struct {
	store    storage.Provider
	catalog  catalog.Catalog
	tools    Tools
	settings Settings
	logger   *slog.Logger

	// mu serializes runs; each run owns its post file until it returns.
	mu      sync.Mutex
	onEvent EventCallback
}

// NewService creates a narrator. cat may be nil to disable the ledger.
func NewService(store storage.Provider, cat catalog.Catalog, tools Tools, settings Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		catalog:  cat,
		tools:    tools,
		settings: settings,
		logger:   logger,
	}
}

// OnEvent registers cb to receive run events. It must be called before the
// service is shared between goroutines.
func (s *Service) OnEvent(cb EventCallback) {
	s.onEvent = cb
}

// Defaults returns the configured run options.
func (s *Service) Defaults() Options {
	return s.settings.Defaults
}

// Preview reads the post at path and returns its narration text.
func (s *Service) Preview(_ context.Context, path string) (*Preview, error) {
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	doc, err := frontmatter.Split(string(data))
	if err != nil {
		return nil, fmt.Errorf("narrator: %s: %w", path, err)
	}

	text := narration.Normalize(doc.Body)
	sl := slug.FromFilename(filepath.Base(path))
	return &Preview{
		Path:        path,
		Slug:        sl,
		Title:       doc.Title(sl),
		AudioURL:    slug.AudioURL(s.settings.URLPrefix, sl),
		Text:        text,
		Words:       narration.WordCount(text),
		Chars:       len([]rune(text)),
		Frontmatter: doc.Fields.Interface(),
	}, nil
}

// fingerprint covers the inputs of render, including the tag metadata, so a
// retitled post or new album settings are re-rendered.
func (s *Service) fingerprint(p *Preview, opts Options) string {
	t := s.settings.Tags
	return checksum.Narration(p.Text, opts.Voice, opts.Speed, p.Title, t.Author, t.Album, t.Genre)
}

// Narrate produces the audio for the post at path and, unless disabled,
// records its location in the post's frontmatter.
func (s *Service) Narrate(ctx context.Context, path string, opts Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	log := s.logger.With(slog.String("run_id", runID), slog.String("path", path))

	p, err := s.Preview(ctx, path)
	if err != nil {
		return nil, err
	}
	res := &Result{Preview: *p, RunID: runID}

	if opts.DryRun {
		res.DryRun = true
		return res, nil
	}

	if p.Words < opts.MinWords {
		return nil, fmt.Errorf("narrator: %s has only %d words (minimum %d): %w",
			path, p.Words, opts.MinWords, apperr.ErrBelowLengthThreshold)
	}
	if !slug.Valid(p.Slug) {
		log.Warn("slug is not URL-safe", slog.String("slug", p.Slug))
	}

	mp3Abs, err := s.store.Abs(path2mp3(s.settings.AudioDir, p.Slug))
	if err != nil {
		return nil, err
	}
	res.MP3Path = mp3Abs
	sum := s.fingerprint(p, opts)

	if !opts.Force && s.upToDate(path, sum, mp3Abs) {
		log.Info("narration is current, skipping synthesis")
		res.Skipped = true
		if !opts.SkipFrontmatterUpdate {
			changed, err := s.ensureAudioField(path, p.AudioURL)
			if err != nil {
				return nil, err
			}
			res.FrontmatterUpdated = changed
		}
		s.emit(EventSkipped, path)
		return res, nil
	}

	s.emit(EventStarted, path)
	if err := s.render(ctx, log, p, opts, mp3Abs); err != nil {
		log.Error("narration failed", slog.String("error", err.Error()))
		s.emit(EventFailed, path)
		return nil, err
	}

	if !opts.SkipFrontmatterUpdate {
		if err := s.UpdateFrontmatter(ctx, path, p.AudioURL); err != nil {
			s.emit(EventFailed, path)
			return nil, err
		}
		res.FrontmatterUpdated = true
		log.Info("frontmatter updated", slog.String("audio", p.AudioURL))
	}

	if info, err := os.Stat(mp3Abs); err == nil {
		res.SizeBytes = info.Size()
		res.Duration = EstimateDuration(info.Size(), s.settings.BitrateKbps)
	}

	if s.catalog != nil {
		rec := models.Narration{
			Path:      path,
			Slug:      p.Slug,
			Title:     p.Title,
			AudioURL:  p.AudioURL,
			Checksum:  sum,
			Words:     p.Words,
			SizeBytes: res.SizeBytes,
			Duration:  res.Duration,
			RunID:     runID,
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.catalog.Upsert(rec); err != nil {
			log.Warn("catalog update failed", slog.String("error", err.Error()))
		}
	}

	log.Info("narration generated",
		slog.String("mp3", mp3Abs),
		slog.Int("words", p.Words),
		slog.Int64("size_bytes", res.SizeBytes),
		slog.Duration("duration", res.Duration))
	s.emit(EventCompleted, path)
	return res, nil
}

// render runs synthesis, conversion and tagging. The intermediate WAV lives in
// a temporary directory that is removed afterwards.
func (s *Service) render(ctx context.Context, log *slog.Logger, p *Preview, opts Options, mp3Abs string) error {
	if err := os.MkdirAll(filepath.Dir(mp3Abs), 0o755); err != nil {
		return fmt.Errorf("narrator: create audio dir: %w", err)
	}
	tmp, err := os.MkdirTemp("", "narrate-*")
	if err != nil {
		return fmt.Errorf("narrator: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	log.Info("generating audio", slog.String("voice", opts.Voice), slog.Float64("speed", opts.Speed))
	wav, err := s.tools.Synthesizer.Synthesize(ctx, p.Text, opts.Voice, opts.Speed, filepath.Join(tmp, "narration"))
	if err != nil {
		return err
	}

	log.Info("converting to mp3")
	if err := s.tools.Converter.Convert(ctx, wav, mp3Abs); err != nil {
		return err
	}

	tags := s.settings.Tags
	tags.Title = p.Title
	return s.tools.Tagger.Tag(mp3Abs, tags)
}

// UpdateFrontmatter re-reads the post, sets its audio field to url and writes
// the whole file back.
func (s *Service) UpdateFrontmatter(_ context.Context, path, url string) error {
	data, err := s.read(path)
	if err != nil {
		return err
	}
	patched, err := frontmatter.Patch(string(data), url)
	if err != nil {
		return fmt.Errorf("narrator: %s: %w", path, err)
	}
	return s.store.Write(path, []byte(patched))
}

// PatchPreview returns the unified diff UpdateFrontmatter would apply.
func (s *Service) PatchPreview(_ context.Context, path, url string) (string, error) {
	data, err := s.read(path)
	if err != nil {
		return "", err
	}
	patched, err := frontmatter.Patch(string(data), url)
	if err != nil {
		return "", fmt.Errorf("narrator: %s: %w", path, err)
	}
	return frontmatter.PatchDiff(path, string(data), patched), nil
}

// List returns recorded narrations, newest first.
func (s *Service) List(_ context.Context, limit, offset int) ([]models.Narration, int, error) {
	if s.catalog == nil {
		return []models.Narration{}, 0, nil
	}
	return s.catalog.List(limit, offset)
}

// ensureAudioField writes the audio field only when it is not already current,
// so that a skipped run does not touch the file.
func (s *Service) ensureAudioField(path, url string) (bool, error) {
	data, err := s.read(path)
	if err != nil {
		return false, err
	}
	patched, err := frontmatter.Patch(string(data), url)
	if err != nil {
		return false, fmt.Errorf("narrator: %s: %w", path, err)
	}
	if patched == string(data) {
		return false, nil
	}
	return true, s.store.Write(path, []byte(patched))
}

func (s *Service) upToDate(path, sum, mp3Abs string) bool {
	if s.catalog == nil {
		return false
	}
	rec, err := s.catalog.Get(path)
	if err != nil || rec.Checksum != sum {
		return false
	}
	_, err = os.Stat(mp3Abs)
	return err == nil
}

func (s *Service) read(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("narrator: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

func (s *Service) emit(kind, path string) {
	if s.onEvent != nil {
		s.onEvent(kind, path)
	}
}

func path2mp3(audioDir, sl string) string {
	return path.Join(audioDir, sl+".mp3")
}

// EstimateDuration derives the play time of a constant-bitrate MP3 from its
// size.
func EstimateDuration(sizeBytes int64, bitrateKbps int) time.Duration {
	if bitrateKbps <= 0 {
		return 0
	}
	seconds := float64(sizeBytes*8) / float64(bitrateKbps*1000)
	return time.Duration(seconds * float64(time.Second))
}
