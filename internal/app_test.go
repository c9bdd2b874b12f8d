package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Site.Root = t.TempDir()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "nested", "catalog.db")
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(cfg, testLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.Catalog == nil || app.Narrator == nil || app.Store == nil {
		t.Fatalf("incomplete app: %+v", app)
	}
	if _, err := os.Stat(cfg.Catalog.Path); err != nil {
		t.Errorf("catalog not created: %v", err)
	}
	d := app.Narrator.Defaults()
	if d.Voice != "af_heart" || d.Speed != 1.0 || d.MinWords != 300 {
		t.Errorf("defaults = %+v", d)
	}
}

func TestBuild_CatalogDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = ""
	app, err := Build(cfg, testLogger())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.Catalog != nil {
		t.Error("catalog should be disabled")
	}
}

func TestBuild_MissingSiteRoot(t *testing.T) {
	cfg := testConfig(t)
	cfg.Site.Root = filepath.Join(t.TempDir(), "missing")
	if _, err := Build(cfg, testLogger()); err == nil {
		t.Fatal("expected error for missing site root")
	}
}

func TestPostPath(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	root := app.Store.Root()
	got, err := app.PostPath(filepath.Join(root, "_posts", "2024-01-01-a.md"))
	if err != nil || got != "_posts/2024-01-01-a.md" {
		t.Errorf("absolute: got %q, %v", got, err)
	}
	if _, err := app.PostPath(filepath.Join(filepath.Dir(root), "elsewhere.md")); err == nil {
		t.Error("path outside the site root should fail")
	}
}
