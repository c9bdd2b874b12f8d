// Package apperr holds the error values shared across narrate packages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrMissingFrontmatter   = errors.New("no frontmatter found")
	ErrBelowLengthThreshold = errors.New("narration below minimum length")
	ErrExternalCapability   = errors.New("external capability failed")
)

// ExternalError reports a failure of one of the external collaborators
// (synthesis, conversion, tagging). Detail carries diagnostic output such as
// the collaborator's stderr.
type ExternalError struct {
	Capability string
	Err        error
	Detail     string
}

func (e *ExternalError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Capability, e.Err)
	if e.Detail != "" {
		msg += "\n" + e.Detail
	}
	return msg
}

// Unwrap exposes both the ErrExternalCapability marker and the cause.
func (e *ExternalError) Unwrap() []error {
	return []error{ErrExternalCapability, e.Err}
}

// External wraps err as an ExternalError for capability.
func External(capability string, err error, detail string) error {
	return &ExternalError{Capability: capability, Err: err, Detail: detail}
}
