package mcpserver

// PostFormatContract describes the Markdown post layout the narrator reads
// and the single field it writes back.
const PostFormatContract = `# Narrated Post Format

Every post handed to the narrator MUST follow this structure.

## Structure

` + "```" + `markdown
---
layout: post
title: Human-readable title          # used as the episode title; the slug otherwise
date: 2025-01-15
audio: "assets/audio/my-post.mp3"    # written by the narrator, do not edit by hand
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **Frontmatter is mandatory.** The file must start with a line that is exactly
   ` + "`---`" + ` and the block ends at the next line that is exactly ` + "`---`" + `.
   Posts without it are rejected.
2. **File names** are ` + "`YYYY-MM-DD-slug.md`" + `. The slug names the MP3 file and
   its URL, so keep it lowercase kebab-case.
3. **Length.** Posts shorter than the configured minimum (300 words by default,
   counted after cleanup) are not narrated.
4. **The ` + "`audio`" + ` field** is the only line the narrator changes. Every other
   frontmatter line, comment and key order is left byte-for-byte intact.

## What is not read aloud

- HTML comments, fenced code blocks, images and their italic caption line
- Any line that is only ` + "`*italic text*`" + ` (treated as a caption)
- Horizontal rules (` + "`---`" + `), footnote definitions and ` + "`[^1]`" + ` markers
- Template tags such as ` + "`{{ site.url }}`" + `, HTML tags and blockquote markers

Headings, link text, bold, italic and inline code are kept as plain words.
`
