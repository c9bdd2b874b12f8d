package speech

import (
	"github.com/bogem/id3v2/v2"

	"github.com/starford/narrate/internal/apperr"
)

// Tags are the metadata fields stamped onto every episode.
type Tags struct {
	Title  string
	Author string
	Album  string
	Genre  string
}

// Tagger attaches metadata to a finished MP3.
type Tagger interface {
	Tag(mp3Path string, tags Tags) error
}

// ID3 writes a fresh ID3v2.4 tag, discarding any tag already present.
type ID3 struct{}

// Tag implements Tagger.
func (ID3) Tag(mp3Path string, tags Tags) error {
	tag, err := id3v2.Open(mp3Path, id3v2.Options{Parse: false})
	if err != nil {
		return apperr.External(CapabilityTagging, err, "")
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(tags.Title)
	tag.SetArtist(tags.Author)
	tag.SetAlbum(tags.Album)
	tag.SetGenre(tags.Genre)

	if err := tag.Save(); err != nil {
		return apperr.External(CapabilityTagging, err, "")
	}
	return nil
}
