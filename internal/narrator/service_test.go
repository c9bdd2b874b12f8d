package narrator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/narrate/internal/apperr"
	"github.com/starford/narrate/internal/catalog"
	"github.com/starford/narrate/internal/speech"
	"github.com/starford/narrate/internal/testutil"
)

const postPath = "_posts/2024-01-15-my-post.md"

type testEnv struct {
	dir    string
	svc    *Service
	synth  *testutil.FakeSynth
	tagger *testutil.FakeTagger
	cat    *catalog.DB
	events *eventLog
}

type eventLog struct {
	mu  sync.Mutex
	got []string
}

func (l *eventLog) add(kind, path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.got = append(l.got, kind+":"+path)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.got...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEnv(t *testing.T, withCatalog bool) *testEnv {
	t.Helper()
	dir, store := testutil.TestSite(t)
	env := &testEnv{
		dir:    dir,
		synth:  &testutil.FakeSynth{},
		tagger: &testutil.FakeTagger{},
		events: &eventLog{},
	}
	var cat catalog.Catalog
	if withCatalog {
		env.cat = testutil.TestCatalog(t)
		cat = env.cat
	}
	env.svc = NewService(store, cat, Tools{
		Synthesizer: env.synth,
		Converter:   &testutil.FakeConverter{},
		Tagger:      env.tagger,
	}, Settings{
		AudioDir:    "assets/audio",
		URLPrefix:   "assets/audio",
		BitrateKbps: 64,
		Tags:        speech.Tags{Author: "Author", Album: "Album", Genre: "Podcast"},
	}, testLogger())
	env.svc.OnEvent(env.events.add)
	return env
}

func defaultOpts() Options {
	return Options{Voice: "af_heart", Speed: 1.0, MinWords: 300}
}

func longPost(title string) string {
	fm := "---\nlayout: post\n"
	if title != "" {
		fm += "title: " + title + "\n"
	}
	return fm + "---\n## Intro\n\n" + testutil.Words(320) + " with **bold**.\n"
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestNarrate_Success(t *testing.T) {
	env := newTestEnv(t, true)
	testutil.WritePost(t, env.dir, postPath, longPost("My Post"))

	res, err := env.svc.Narrate(context.Background(), postPath, defaultOpts())
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if res.Slug != "my-post" || res.AudioURL != "assets/audio/my-post.mp3" {
		t.Errorf("slug = %q, url = %q", res.Slug, res.AudioURL)
	}
	if res.RunID == "" || res.Skipped || res.DryRun || !res.FrontmatterUpdated {
		t.Errorf("unexpected result flags: %+v", res)
	}

	mp3 := filepath.Join(env.dir, "assets", "audio", "my-post.mp3")
	if res.MP3Path != mp3 {
		t.Errorf("mp3 path = %q, want %q", res.MP3Path, mp3)
	}
	if _, err := os.Stat(mp3); err != nil {
		t.Fatalf("mp3 not written: %v", err)
	}
	if res.SizeBytes == 0 || res.Duration == 0 {
		t.Errorf("size = %d, duration = %v", res.SizeBytes, res.Duration)
	}

	if len(env.synth.Texts) != 1 {
		t.Fatalf("synth calls = %d", len(env.synth.Texts))
	}
	text := env.synth.Texts[0]
	if strings.Contains(text, "**") || strings.Contains(text, "##") || !strings.HasPrefix(text, "Intro\n\nword") {
		t.Errorf("synth text not normalized: %q", text[:40])
	}

	if got := env.tagger.Last(); got.Title != "My Post" || got.Author != "Author" || got.Album != "Album" || got.Genre != "Podcast" {
		t.Errorf("tags = %+v", got)
	}

	post := readFile(t, filepath.Join(env.dir, postPath))
	if !strings.HasPrefix(post, "---\nlayout: post\ntitle: My Post\naudio: \"assets/audio/my-post.mp3\"\n---\n## Intro") {
		t.Errorf("frontmatter not patched:\n%s", post[:80])
	}

	rec, err := env.cat.Get(postPath)
	if err != nil {
		t.Fatalf("catalog get: %v", err)
	}
	if rec.RunID != res.RunID || rec.Words != res.Words || rec.Title != "My Post" {
		t.Errorf("catalog record = %+v", rec)
	}

	want := []string{"started:" + postPath, "completed:" + postPath}
	if got := env.events.list(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestNarrate_TitleFallsBackToSlug(t *testing.T) {
	env := newTestEnv(t, false)
	testutil.WritePost(t, env.dir, postPath, longPost(""))

	if _, err := env.svc.Narrate(context.Background(), postPath, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	if got := env.tagger.Last().Title; got != "my-post" {
		t.Errorf("title = %q, want slug", got)
	}
}

func TestNarrate_DryRun(t *testing.T) {
	env := newTestEnv(t, true)
	content := "---\ntitle: Short\n---\nJust **a** few words.\n"
	testutil.WritePost(t, env.dir, postPath, content)

	opts := defaultOpts()
	opts.DryRun = true
	res, err := env.svc.Narrate(context.Background(), postPath, opts)
	if err != nil {
		t.Fatalf("dry run should ignore the length gate: %v", err)
	}
	if !res.DryRun || res.Text != "Just a few words." || res.Words != 4 || res.Chars != 17 {
		t.Errorf("result = %+v", res)
	}
	if env.synth.CallCount() != 0 {
		t.Error("dry run must not synthesize")
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != content {
		t.Error("dry run modified the post")
	}
	if len(env.events.list()) != 0 {
		t.Errorf("dry run emitted events: %v", env.events.list())
	}
}

func TestNarrate_BelowThreshold(t *testing.T) {
	env := newTestEnv(t, true)
	content := "---\ntitle: Short\n---\n" + testutil.Words(299) + "\n"
	testutil.WritePost(t, env.dir, postPath, content)

	_, err := env.svc.Narrate(context.Background(), postPath, defaultOpts())
	if !errors.Is(err, apperr.ErrBelowLengthThreshold) {
		t.Fatalf("err = %v, want ErrBelowLengthThreshold", err)
	}
	if !strings.Contains(err.Error(), "299") || !strings.Contains(err.Error(), "300") {
		t.Errorf("error should carry the counts: %v", err)
	}
	if env.synth.CallCount() != 0 {
		t.Error("short post must not be synthesized")
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != content {
		t.Error("short post was modified")
	}
}

func TestNarrate_ExactlyAtThreshold(t *testing.T) {
	env := newTestEnv(t, false)
	testutil.WritePost(t, env.dir, postPath, "---\n---\n"+testutil.Words(300)+"\n")

	if _, err := env.svc.Narrate(context.Background(), postPath, defaultOpts()); err != nil {
		t.Fatalf("300 words should pass the gate: %v", err)
	}
}

func TestNarrate_MissingFrontmatter(t *testing.T) {
	env := newTestEnv(t, true)
	testutil.WritePost(t, env.dir, postPath, "# No frontmatter\n\n"+testutil.Words(400))

	_, err := env.svc.Narrate(context.Background(), postPath, defaultOpts())
	if !errors.Is(err, apperr.ErrMissingFrontmatter) {
		t.Fatalf("err = %v, want ErrMissingFrontmatter", err)
	}
	if env.synth.CallCount() != 0 {
		t.Error("must not synthesize without frontmatter")
	}
}

func TestNarrate_NotFound(t *testing.T) {
	env := newTestEnv(t, true)
	_, err := env.svc.Narrate(context.Background(), "_posts/missing.md", defaultOpts())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestNarrate_ExternalFailureLeavesPostUntouched(t *testing.T) {
	env := newTestEnv(t, true)
	content := longPost("My Post")
	testutil.WritePost(t, env.dir, postPath, content)
	env.synth.Err = apperr.External("synthesis", errors.New("exit status 1"), "model not found")

	_, err := env.svc.Narrate(context.Background(), postPath, defaultOpts())
	if !errors.Is(err, apperr.ErrExternalCapability) {
		t.Fatalf("err = %v, want ErrExternalCapability", err)
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("diagnostic detail lost: %v", err)
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != content {
		t.Error("post modified after failed synthesis")
	}
	if _, err := os.Stat(filepath.Join(env.dir, "assets", "audio", "my-post.mp3")); !os.IsNotExist(err) {
		t.Error("no mp3 should exist after failed synthesis")
	}
	if _, err := env.cat.Get(postPath); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("failed run must not be cataloged")
	}
	want := []string{"started:" + postPath, "failed:" + postPath}
	if got := env.events.list(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestNarrate_SkipFrontmatterUpdate(t *testing.T) {
	env := newTestEnv(t, false)
	content := longPost("My Post")
	testutil.WritePost(t, env.dir, postPath, content)

	opts := defaultOpts()
	opts.SkipFrontmatterUpdate = true
	res, err := env.svc.Narrate(context.Background(), postPath, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.FrontmatterUpdated {
		t.Error("frontmatter reported as updated")
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != content {
		t.Error("post modified despite SkipFrontmatterUpdate")
	}
	if _, err := os.Stat(res.MP3Path); err != nil {
		t.Errorf("mp3 missing: %v", err)
	}
}

func TestNarrate_ReplacesExistingAudioField(t *testing.T) {
	env := newTestEnv(t, false)
	testutil.WritePost(t, env.dir, postPath,
		"---\ntitle: T\naudio: \"old.mp3\"\ntags: [a]\n---\n"+testutil.Words(310)+"\n")

	if _, err := env.svc.Narrate(context.Background(), postPath, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	post := readFile(t, filepath.Join(env.dir, postPath))
	if !strings.HasPrefix(post, "---\ntitle: T\naudio: \"assets/audio/my-post.mp3\"\ntags: [a]\n---\n") {
		t.Errorf("audio field not replaced in place:\n%s", post[:70])
	}
	if strings.Count(post, "audio:") != 1 {
		t.Errorf("expected one audio line:\n%s", post)
	}
}

func TestNarrate_SkipsWhenCurrent(t *testing.T) {
	env := newTestEnv(t, true)
	testutil.WritePost(t, env.dir, postPath, longPost("My Post"))
	ctx := context.Background()

	if _, err := env.svc.Narrate(ctx, postPath, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	after := readFile(t, filepath.Join(env.dir, postPath))

	res, err := env.svc.Narrate(ctx, postPath, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.FrontmatterUpdated {
		t.Errorf("second run should skip without writing: %+v", res)
	}
	if env.synth.CallCount() != 1 {
		t.Errorf("synth calls = %d, want 1", env.synth.CallCount())
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != after {
		t.Error("skipped run modified the post")
	}

	opts := defaultOpts()
	opts.Force = true
	if res, err = env.svc.Narrate(ctx, postPath, opts); err != nil || res.Skipped {
		t.Fatalf("forced run: res=%+v err=%v", res, err)
	}
	if env.synth.CallCount() != 2 {
		t.Errorf("synth calls = %d, want 2", env.synth.CallCount())
	}

	opts = defaultOpts()
	opts.Voice = "bm_george"
	if res, err = env.svc.Narrate(ctx, postPath, opts); err != nil || res.Skipped {
		t.Fatalf("voice change should re-render: res=%+v err=%v", res, err)
	}
}

func TestNarrate_SkippedRunRestoresAudioField(t *testing.T) {
	env := newTestEnv(t, true)
	testutil.WritePost(t, env.dir, postPath, longPost("My Post"))
	ctx := context.Background()

	if _, err := env.svc.Narrate(ctx, postPath, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	testutil.WritePost(t, env.dir, postPath, longPost("My Post"))

	res, err := env.svc.Narrate(ctx, postPath, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || !res.FrontmatterUpdated {
		t.Errorf("result = %+v", res)
	}
	if post := readFile(t, filepath.Join(env.dir, postPath)); !strings.Contains(post, "audio: \"assets/audio/my-post.mp3\"\n") {
		t.Errorf("audio field not restored:\n%s", post[:80])
	}
}

func TestPatchPreview(t *testing.T) {
	env := newTestEnv(t, false)
	content := "---\ntitle: T\n---\nbody\n"
	testutil.WritePost(t, env.dir, postPath, content)

	diff, err := env.svc.PatchPreview(context.Background(), postPath, "x.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(diff, "+audio: \"x.mp3\"") {
		t.Errorf("diff = %q", diff)
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != content {
		t.Error("preview modified the post")
	}
}

func TestUpdateFrontmatter(t *testing.T) {
	env := newTestEnv(t, false)
	testutil.WritePost(t, env.dir, postPath, "---\ntitle: T\n---\nbody\n")

	if err := env.svc.UpdateFrontmatter(context.Background(), postPath, "a/b.mp3"); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(env.dir, postPath)); got != "---\ntitle: T\naudio: \"a/b.mp3\"\n---\nbody\n" {
		t.Errorf("post = %q", got)
	}
}

func TestList_WithoutCatalog(t *testing.T) {
	env := newTestEnv(t, false)
	items, total, err := env.svc.List(context.Background(), 10, 0)
	if err != nil || total != 0 || len(items) != 0 {
		t.Errorf("items=%v total=%d err=%v", items, total, err)
	}
}

func TestEstimateDuration(t *testing.T) {
	if got := EstimateDuration(8000, 64); got != time.Second {
		t.Errorf("EstimateDuration(8000, 64) = %v", got)
	}
	if got := EstimateDuration(480000, 64); got != time.Minute {
		t.Errorf("EstimateDuration(480000, 64) = %v", got)
	}
	if got := EstimateDuration(100, 0); got != 0 {
		t.Errorf("zero bitrate = %v", got)
	}
}

func TestNarrate_RetitledPostIsRetagged(t *testing.T) {
	env := newTestEnv(t, true)
	testutil.WritePost(t, env.dir, postPath, longPost("My Post"))
	ctx := context.Background()

	if _, err := env.svc.Narrate(ctx, postPath, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	testutil.WritePost(t, env.dir, postPath, longPost("A Better Title"))

	res, err := env.svc.Narrate(ctx, postPath, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	if res.Skipped {
		t.Error("retitled post was skipped")
	}
	if got := env.tagger.Last().Title; got != "A Better Title" {
		t.Errorf("tag title = %q", got)
	}
	if env.synth.CallCount() != 2 {
		t.Errorf("synth calls = %d, want 2", env.synth.CallCount())
	}
}

func TestOptions_Validate(t *testing.T) {
	if err := defaultOpts().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cases := map[string]func(*Options){
		"empty voice":    func(o *Options) { o.Voice = "" },
		"zero speed":     func(o *Options) { o.Speed = 0 },
		"negative speed": func(o *Options) { o.Speed = -1 },
		"too fast":       func(o *Options) { o.Speed = 4.5 },
		"negative words": func(o *Options) { o.MinWords = -1 },
	}
	for name, mutate := range cases {
		opts := defaultOpts()
		mutate(&opts)
		if err := opts.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
