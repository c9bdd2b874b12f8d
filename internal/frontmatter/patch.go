package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

const audioKey = "audio:"

var audioLineRe = regexp.MustCompile(`(?m)^audio:.*\n`)

// AudioLine returns the canonical frontmatter line for url.
func AudioLine(url string) string {
	return audioKey + ` "` + url + `"` + "\n"
}

// Patch sets the audio field of the document's frontmatter to url. Existing
// audio lines are replaced in place; otherwise the line is appended as the
// last line of the block. Every other byte of text is preserved.
func Patch(text, url string) (string, error) {
	block, end, err := locate(text)
	if err != nil {
		return "", err
	}

	line := AudioLine(url)
	if audioLineRe.MatchString(block) {
		block = audioLineRe.ReplaceAllLiteralString(block, line)
	} else {
		block += line
	}

	var b strings.Builder
	b.Grow(len(text) + len(line))
	b.WriteString(delim)
	b.WriteString(block)
	b.WriteString(delim)
	b.WriteString(text[end:])
	return b.String(), nil
}

// PatchDiff renders a unified diff between before and after, labelled with
// name. It returns an empty string when nothing changed.
func PatchDiff(name, before, after string) string {
	if before == after {
		return ""
	}
	edits := myers.ComputeEdits(span.URIFromPath(name), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(name, name, before, edits))
}
