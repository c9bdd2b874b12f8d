// Package testutil provides shared test helpers for setting up sites,
// catalogs and fake speech tools.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/starford/narrate/internal/catalog"
	"github.com/starford/narrate/internal/speech"
	"github.com/starford/narrate/internal/storage"
)

// TestCatalog creates a temporary SQLite catalog that is automatically cleaned up.
func TestCatalog(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSite creates a temporary site directory with a storage.FS.
func TestSite(t *testing.T) (string, *storage.FS) {
	t.Helper()
	siteDir := t.TempDir()
	store, err := storage.NewFS(siteDir)
	if err != nil {
		t.Fatal(err)
	}
	return siteDir, store
}

// WritePost writes content to rel under dir, creating parent directories.
func WritePost(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Words returns n space-separated filler words.
func Words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// FakeSynth writes the narration text as the WAV payload and records calls.
type FakeSynth struct {
	mu    sync.Mutex
	Calls int
	Texts []string
	Err   error
}

// Synthesize implements speech.Synthesizer.
func (f *FakeSynth) Synthesize(_ context.Context, text, _ string, _ float64, outPrefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Texts = append(f.Texts, text)
	if f.Err != nil {
		return "", f.Err
	}
	wav := outPrefix + ".wav"
	if err := os.WriteFile(wav, []byte(text), 0o644); err != nil {
		return "", err
	}
	return wav, nil
}

// CallCount returns the number of Synthesize calls so far.
func (f *FakeSynth) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// FakeConverter copies the WAV to the MP3 path.
type FakeConverter struct {
	Err error
}

// Convert implements speech.Converter.
func (f *FakeConverter) Convert(_ context.Context, wavPath, mp3Path string) error {
	if f.Err != nil {
		return f.Err
	}
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return err
	}
	return os.WriteFile(mp3Path, data, 0o644)
}

// FakeTagger records the tags it was asked to write.
type FakeTagger struct {
	mu   sync.Mutex
	Tags []speech.Tags
}

// Tag implements speech.Tagger.
func (f *FakeTagger) Tag(_ string, tags speech.Tags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tags = append(f.Tags, tags)
	return nil
}

// Last returns the most recent tags, or the zero value.
func (f *FakeTagger) Last() speech.Tags {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Tags) == 0 {
		return speech.Tags{}
	}
	return f.Tags[len(f.Tags)-1]
}
