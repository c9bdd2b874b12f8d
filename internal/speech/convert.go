package speech

import (
	"context"
	"strconv"
)

// Converter transcodes a WAV rendering into the published MP3.
type Converter interface {
	Convert(ctx context.Context, wavPath, mp3Path string) error
}

// FFmpeg converts with ffmpeg to constant-bitrate mono MP3.
type FFmpeg struct {
	Path        string
	BitrateKbps int
	SampleRate  int
}

// Convert implements Converter.
func (f *FFmpeg) Convert(ctx context.Context, wavPath, mp3Path string) error {
	return run(ctx, CapabilityConversion, f.Path,
		"-y",
		"-i", wavPath,
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(f.BitrateKbps)+"k",
		"-ac", "1",
		"-ar", strconv.Itoa(f.SampleRate),
		mp3Path,
	)
}
