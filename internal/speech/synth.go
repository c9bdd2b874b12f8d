package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/starford/narrate/internal/apperr"
)

// Synthesizer renders narration text into a single WAV file.
type Synthesizer interface {
	// Synthesize writes "<outPrefix>.wav" and returns its path.
	Synthesize(ctx context.Context, text, voice string, speed float64, outPrefix string) (string, error)
}

// Kokoro runs the mlx-audio Kokoro text-to-speech CLI.
type Kokoro struct {
	// Command is the program and leading arguments, e.g.
	// ["python3", "-m", "mlx_audio.tts.generate"].
	Command  []string
	Model    string
	LangCode string
}

// Synthesize implements Synthesizer.
func (k *Kokoro) Synthesize(ctx context.Context, text, voice string, speed float64, outPrefix string) (string, error) {
	if len(k.Command) == 0 {
		return "", apperr.External(CapabilitySynthesis, errors.New("no synthesis command configured"), "")
	}
	args := append([]string{}, k.Command[1:]...)
	args = append(args,
		"--model", k.Model,
		"--text", text,
		"--voice", voice,
		"--speed", strconv.FormatFloat(speed, 'f', -1, 64),
		"--lang_code", k.LangCode,
		"--file_prefix", outPrefix,
		"--audio_format", "wav",
		"--join_audio",
	)
	if err := run(ctx, CapabilitySynthesis, k.Command[0], args...); err != nil {
		return "", err
	}

	wav := outPrefix + ".wav"
	if _, err := os.Stat(wav); err != nil {
		return "", apperr.External(CapabilitySynthesis, fmt.Errorf("expected WAV not found at %s", wav), "")
	}
	return wav, nil
}
