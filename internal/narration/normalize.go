// Package narration turns a markdown post body into plain text suitable for
// speech synthesis.
//
// The conversion is an ordered list of independent rewrite stages. Order
// matters: later stages assume earlier syntax is already gone, e.g. bold must
// be stripped before italic so that "****" is not read as nested emphasis.
package narration

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Stage is one rewrite rule of the pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// space matches any Unicode whitespace. RE2's \s is ASCII only, which would
// leave "#\u00a0Title" or a "---\u00a0" rule in the narration.
const space = `[\s\v\p{Z}\x{85}\x{1c}-\x{1f}]`

var stages = []Stage{
	{"html-comments", remove(regexp.MustCompile(`(?s)<!--.*?-->`))},
	{"code-fences", remove(regexp.MustCompile("(?s)```[^\\n]*\\n.*?```"))},
	{"images", remove(regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`))},
	{"caption-lines", remove(regexp.MustCompile(`(?m)^\*([^*]+)\*` + space + `*$`))},
	{"horizontal-rules", replace(regexp.MustCompile(`(?m)^` + space + `*---` + space + `*$`), "\n")},
	{"footnote-definitions", replaceLookaround(
		regexp2.MustCompile(`^\[\^[0-9]+\]:.*?(?=\n\[\^[0-9]+\]:|\n\n|\z)`, regexp2.Multiline|regexp2.Singleline), "")},
	{"footnote-references", remove(regexp.MustCompile(`\[\^[0-9]+\]`))},
	{"template-tags", remove(regexp.MustCompile(`\{\{.*?\}\}`))},
	{"headings", replace(regexp.MustCompile(`(?m)^#{1,6}` + space + `+(.+)$`), "\n\n${1}\n")},
	{"links", replace(regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`), "${1}")},
	{"bold", replace(regexp.MustCompile(`\*\*(.+?)\*\*`), "${1}")},
	{"italic", replaceLookaround(
		regexp2.MustCompile(`(?<!\w)\*([^*]+?)\*(?!\w)`, regexp2.None), "$1")},
	{"inline-code", replace(regexp.MustCompile("`([^`]+)`"), "${1}")},
	{"html-tags", remove(regexp.MustCompile(`<[^>]+>`))},
	{"blockquotes", remove(regexp.MustCompile(`(?m)^>` + space + `?`))},
	{"blank-lines", replace(regexp.MustCompile(`\n{3,}`), "\n\n")},
	{"trim", strings.TrimSpace},
}

// Stages returns the pipeline in application order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// Normalize converts a markdown body into narration text. It never fails.
// Invalid UTF-8 sequences are replaced with U+FFFD up front so every stage
// sees the same runes.
func Normalize(body string) string {
	text := body
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	for _, s := range stages {
		text = s.Apply(text)
	}
	return text
}

// WordCount returns the number of whitespace-separated tokens in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func remove(re *regexp.Regexp) func(string) string {
	return replace(re, "")
}

func replace(re *regexp.Regexp, repl string) func(string) string {
	return func(s string) string {
		return re.ReplaceAllString(s, repl)
	}
}

// replaceLookaround is used for rules RE2 cannot express. regexp2 matches on
// runes, so input must already be valid UTF-8. It only errors on match
// timeouts, which are not configured; the input is returned as-is in that
// case so the pipeline stays total.
func replaceLookaround(re *regexp2.Regexp, repl string) func(string) string {
	return func(s string) string {
		out, err := re.Replace(s, repl, -1, -1)
		if err != nil {
			return s
		}
		return out
	}
}
