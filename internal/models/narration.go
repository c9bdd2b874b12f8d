// Package models defines the domain types shared by narrate packages.
package models

import "time"

// PostMetadata is a lightweight view of a post file on disk.
type PostMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Narration records the last audio rendering produced for a post.
type Narration struct {
	Path      string        `json:"path"`
	Slug      string        `json:"slug"`
	Title     string        `json:"title"`
	AudioURL  string        `json:"audio_url"`
	Checksum  string        `json:"checksum"`
	Words     int           `json:"words"`
	SizeBytes int64         `json:"size_bytes"`
	Duration  time.Duration `json:"duration"`
	RunID     string        `json:"run_id"`
	UpdatedAt time.Time     `json:"updated_at"`
}
