// Package slug derives URL identifiers and audio paths from dated post filenames.
package slug

import (
	"path"
	"regexp"
	"strings"

	goslug "github.com/goliatone/go-slug"
)

var datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// FromFilename strips an optional YYYY-MM-DD- prefix and an optional .md
// suffix: "2026-02-11-a-second-opinion.md" becomes "a-second-opinion".
func FromFilename(name string) string {
	return strings.TrimSuffix(datePrefixRe.ReplaceAllString(name, ""), ".md")
}

// AudioURL returns the site-relative location of the narration for s.
func AudioURL(prefix, s string) string {
	return path.Join(prefix, s+".mp3")
}

// Valid reports whether s already satisfies the default URL slug rules.
func Valid(s string) bool {
	return goslug.IsValid(s)
}
