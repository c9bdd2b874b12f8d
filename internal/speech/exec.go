// Package speech wraps the external collaborators that turn narration text
// into a tagged MP3: the synthesis engine, the audio converter and the ID3
// tag writer. Each is invoked once per run and never retried.
package speech

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/starford/narrate/internal/apperr"
)

const (
	CapabilitySynthesis  = "synthesis"
	CapabilityConversion = "conversion"
	CapabilityTagging    = "tagging"
)

// run executes name with args and converts any failure into an
// apperr.ExternalError carrying the command's stderr.
func run(ctx context.Context, capability, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return apperr.External(capability, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
