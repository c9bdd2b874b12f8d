package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s", got)
	}
}

func TestNarration_SensitiveToVoiceAndSpeed(t *testing.T) {
	base := Narration("hello world", "af_heart", 1.0)
	if base != Narration("hello world", "af_heart", 1) {
		t.Error("same inputs should give same fingerprint")
	}
	for name, other := range map[string]string{
		"text":  Narration("hello world!", "af_heart", 1.0),
		"voice": Narration("hello world", "am_adam", 1.0),
		"speed": Narration("hello world", "af_heart", 1.1),
	} {
		if other == base {
			t.Errorf("changing %s did not change fingerprint", name)
		}
	}
}

func TestNarration_SensitiveToTagMetadata(t *testing.T) {
	base := Narration("hello", "af_heart", 1.0, "Title", "Author", "Album", "Podcast")
	for name, other := range map[string]string{
		"title":  Narration("hello", "af_heart", 1.0, "Other", "Author", "Album", "Podcast"),
		"author": Narration("hello", "af_heart", 1.0, "Title", "Someone", "Album", "Podcast"),
		"genre":  Narration("hello", "af_heart", 1.0, "Title", "Author", "Album", "Speech"),
		"shift":  Narration("hello", "af_heart", 1.0, "TitleAuthor", "", "Album", "Podcast"),
		"none":   Narration("hello", "af_heart", 1.0),
	} {
		if other == base {
			t.Errorf("changing %s did not change fingerprint", name)
		}
	}
}
