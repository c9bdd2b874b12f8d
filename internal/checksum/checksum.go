// Package checksum fingerprints post files and narration inputs.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Narration fingerprints everything that shapes the rendered file: the
// narration text, the voice settings and the metadata written into the tags.
// Two runs with equal fingerprints produce the same MP3.
func Narration(text, voice string, speed float64, meta ...string) string {
	h := sha256.New()
	h.Write([]byte(voice))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(speed, 'f', -1, 64)))
	h.Write([]byte{0})
	for _, m := range meta {
		h.Write([]byte(m))
		h.Write([]byte{0})
	}
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
