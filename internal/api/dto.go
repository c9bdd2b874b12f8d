package api

import (
	"github.com/starford/narrate/internal/models"
	"github.com/starford/narrate/internal/narrator"
)

// NarrateRequest is the optional request body for a narration run. Omitted
// fields fall back to the configured defaults; the merged options are
// validated by narrator.Options.Validate.
type NarrateRequest struct {
	Voice                 *string  `json:"voice,omitempty" example:"af_heart"`
	Speed                 *float64 `json:"speed,omitempty" example:"1.0"`
	MinWords              *int     `json:"min_words,omitempty" example:"300"`
	DryRun                bool     `json:"dry_run,omitempty"`
	SkipFrontmatterUpdate bool     `json:"skip_frontmatter_update,omitempty"`
	Force                 bool     `json:"force,omitempty"`
}

// apply overlays the request onto defaults.
func (r NarrateRequest) apply(defaults narrator.Options) narrator.Options {
	opts := defaults
	if r.Voice != nil {
		opts.Voice = *r.Voice
	}
	if r.Speed != nil {
		opts.Speed = *r.Speed
	}
	if r.MinWords != nil {
		opts.MinWords = *r.MinWords
	}
	opts.DryRun = r.DryRun
	opts.SkipFrontmatterUpdate = r.SkipFrontmatterUpdate
	opts.Force = r.Force
	return opts
}

// NarrationListResponse wraps paginated narration listings.
type NarrationListResponse struct {
	Narrations []models.Narration `json:"narrations" validate:"required"`
	Total      int                `json:"total" example:"42" validate:"required"`
}

// PreviewResponse is the narration text of a post (aliased from the domain layer).
type PreviewResponse = narrator.Preview

// NarrateResponse is the outcome of a narration run (aliased from the domain layer).
type NarrateResponse = narrator.Result
