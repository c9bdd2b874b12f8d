// Package frontmatter splits a post into its metadata block and body, decodes
// the block for read access, and patches the audio field in place.
package frontmatter

import (
	"fmt"
	"regexp"

	"github.com/starford/narrate/internal/apperr"
)

const delim = "---\n"

// blockRe matches the opening delimiter at offset 0 and the nearest following
// line that is exactly "---". The captured block always ends with a newline.
var blockRe = regexp.MustCompile(`(?s)\A---\n(.*?\n)---\n`)

// Document is a post split into its raw metadata block, the decoded fields and
// the body.
type Document struct {
	Block  string
	Fields Fields
	Body   string
}

// Split separates the frontmatter block from the body. It fails with
// apperr.ErrMissingFrontmatter when no opening/closing delimiter pair exists.
func Split(text string) (*Document, error) {
	block, end, err := locate(text)
	if err != nil {
		return nil, err
	}
	fields, err := decodeFields(block)
	if err != nil {
		return nil, err
	}
	return &Document{
		Block:  block,
		Fields: fields,
		Body:   text[end:],
	}, nil
}

// String reassembles the document exactly as it was read.
func (d *Document) String() string {
	return delim + d.Block + delim + d.Body
}

// Title returns the string "title" field, or fallback when it is absent or
// not a string.
func (d *Document) Title(fallback string) string {
	if s, ok := d.Fields.String("title"); ok && s != "" {
		return s
	}
	return fallback
}

// locate returns the raw block and the offset just past the closing
// delimiter line.
func locate(text string) (string, int, error) {
	m := blockRe.FindStringSubmatchIndex(text)
	if m == nil {
		return "", 0, fmt.Errorf("frontmatter: %w", apperr.ErrMissingFrontmatter)
	}
	return text[m[2]:m[3]], m[1], nil
}
