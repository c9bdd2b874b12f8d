package narration

import (
	"strings"
	"testing"
)

func stage(t *testing.T, name string) func(string) string {
	t.Helper()
	for _, s := range Stages() {
		if s.Name == name {
			return s.Apply
		}
	}
	t.Fatalf("no stage %q", name)
	return nil
}

func TestStages_Order(t *testing.T) {
	want := []string{
		"html-comments", "code-fences", "images", "caption-lines", "horizontal-rules",
		"footnote-definitions", "footnote-references", "template-tags", "headings", "links",
		"bold", "italic", "inline-code", "html-tags", "blockquotes", "blank-lines", "trim",
	}
	got := Stages()
	if len(got) != len(want) {
		t.Fatalf("len(stages) = %d, want %d", len(got), len(want))
	}
	for i, s := range got {
		if s.Name != want[i] {
			t.Errorf("stage %d = %q, want %q", i, s.Name, want[i])
		}
	}
}

func TestStages_Individual(t *testing.T) {
	cases := []struct {
		stage string
		in    string
		want  string
	}{
		{"html-comments", "a<!--more-->b<!-- x\ny -->c", "abc"},
		{"code-fences", "before\n```go\nfmt.Println()\n```\nmid\n```\nx\n```\nafter", "before\n\nmid\n\nafter"},
		{"images", "see ![alt text](a.png) here", "see  here"},
		{"caption-lines", "intro\n*A caption*\nnext *inline* word", "intro\n\nnext *inline* word"},
		{"caption-lines", "*caption*\u00a0\nText.", "\nText."},
		{"caption-lines", "*caption*\u2003\nText.", "\nText."},
		{"horizontal-rules", "a\n---\nb", "a\n\n\nb"},
		{"horizontal-rules", "a\n----\nb", "a\n----\nb"},
		{"horizontal-rules", "One.\n\n---\u00a0\n\nTwo.", "One.\n\n\nTwo."},
		{"horizontal-rules", "a\n\u3000---\nb", "a\n\n\nb"},
		{"footnote-definitions", "x\n[^3]: tail", "x\n"},
		{"footnote-definitions",
			"Text[^1].\n\n[^1]: First note.\n[^2]: Second\ncontinues.\n\nAfter",
			"Text[^1].\n\n\n\n\nAfter"},
		{"footnote-references", "a[^12] b", "a b"},
		{"template-tags", "a {{ site.url }} b {{x}}", "a  b "},
		{"headings", "# Title\ntext", "\n\nTitle\n\ntext"},
		{"headings", "#hashtag\n####### seven", "#hashtag\n####### seven"},
		{"headings", "#\u00a0Heading\ntext", "\n\nHeading\n\ntext"},
		{"links", "[text](http://x) and **[bold](u)**", "text and **bold**"},
		{"bold", "**a** and **b c**", "a and b c"},
		{"italic", "an *emph* word, 2*3*4 and snake*case*x", "an emph word, 2*3*4 and snake*case*x"},
		{"inline-code", "use `go test` now", "use go test now"},
		{"html-tags", "a <b>bold</b> <br/> c", "a bold  c"},
		{"blockquotes", "> quoted\n>tight\nnot > this", "quoted\ntight\nnot > this"},
		{"blockquotes", ">\u00a0quoted", "quoted"},
		{"blank-lines", "a\n\n\n\nb", "a\n\nb"},
		{"trim", "  \n text \n\n", "text"},
	}
	for _, tc := range cases {
		if got := stage(t, tc.stage)(tc.in); got != tc.want {
			t.Errorf("%s(%q)\n got %q\nwant %q", tc.stage, tc.in, got, tc.want)
		}
	}
}

func TestNormalize_Examples(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "image with caption",
			in:   "![A diagram](assets/diagram.png)\n*Figure 1: the diagram*\n\nSome text.",
			want: "Some text.",
		},
		{
			name: "heading bold link code",
			in:   "## Section\n\nHello **world**, see [this](http://x) and `code`.",
			want: "Section\n\nHello world, see this and code.",
		},
		{
			name: "standalone italic line anywhere is dropped",
			in:   "Intro.\n\n*Just an italic line*\n\nOutro.",
			want: "Intro.\n\nOutro.",
		},
		{
			name: "footnote body ends at first blank line",
			in:   "Claim.[^1]\n\n[^1]: para one\n\npara two of note",
			want: "Claim.\n\npara two of note",
		},
		{
			name: "rule becomes paragraph break",
			in:   "One.\n\n---\n\nTwo.",
			want: "One.\n\nTwo.",
		},
		{
			name: "non-breaking spaces count as whitespace",
			in:   "#\u00a0Heading\n\n*caption*\u00a0\nBody.\n\n---\u00a0\n\nTwo.",
			want: "Heading\n\nBody.\n\nTwo.",
		},
		{
			name: "invalid utf-8 becomes replacement character",
			in:   "caf\xe9 *latte*",
			want: "caf\ufffd latte",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("got %q\nwant %q", got, tc.want)
			}
		})
	}
}

const samplePost = `<!--more-->
Opening paragraph with **bold**, *italic*, and ` + "`code`" + `.[^1]

![Diagram](assets/d.png)
*Figure 1: a caption*

## A Section

Read [the **docs**](https://example.com) and {{ site.title }}.

> A quoted line
> continues here

` + "```python\nprint(\"hi\")\n```" + `

---



Final <em>words</em>.

[^1]: The footnote.
`

func TestNormalize_NoMarkupLeft(t *testing.T) {
	out := Normalize(samplePost)
	for _, bad := range []string{"**", "`", "[^", "{{", "![", "](", "<", ">", "\n\n\n"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains %q:\n%s", bad, out)
		}
	}
	for _, keep := range []string{"Opening paragraph with bold, italic, and code.", "A Section", "Read the docs and", "A quoted line\ncontinues here", "Final words."} {
		if !strings.Contains(out, keep) {
			t.Errorf("output missing %q:\n%s", keep, out)
		}
	}
	if out != strings.TrimSpace(out) {
		t.Errorf("output not trimmed: %q", out)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		samplePost,
		"## Section\n\nHello **world**, see [this](http://x) and `code`.",
		"Plain prose.\n\nSecond paragraph with 2*3 math.",
		"# Only a heading",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("not idempotent for %q:\n once %q\ntwice %q", in, once, twice)
		}
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("one two\n\nthree\t four "); n != 4 {
		t.Errorf("WordCount = %d, want 4", n)
	}
	if n := WordCount(""); n != 0 {
		t.Errorf("WordCount(empty) = %d", n)
	}
}

// Each stage runs once, so markup that only appears after a rewrite survives
// a single pass.
func TestNormalize_NestedLinkUnwrapsOneLevel(t *testing.T) {
	once := Normalize("[[x](y)](z)")
	if once != "[x](z)" {
		t.Fatalf("once = %q", once)
	}
	if twice := Normalize(once); twice != "x" {
		t.Errorf("twice = %q", twice)
	}
}
