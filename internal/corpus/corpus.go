// Package corpus loads the scripture verse corpus from its JSON export.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrCorpusNotFound indicates the corpus file does not exist at the given path.
var ErrCorpusNotFound = errors.New("corpus file not found")

// Verse is one record of the corpus export. Only VerseTitle and ScriptureText
// are required downstream; the remaining fields describe where the verse sits
// in the canon and feed the stats command. Missing fields are not validated
// here — a record without a title or text surfaces as an empty embedding
// input, matching the leniency of the source data set.
type Verse struct {
	VolumeTitle     string `json:"volume_title"`
	BookTitle       string `json:"book_title"`
	BookShortTitle  string `json:"book_short_title"`
	ChapterNumber   int    `json:"chapter_number"`
	VerseNumber     int    `json:"verse_number"`
	VerseTitle      string `json:"verse_title"`
	VerseShortTitle string `json:"verse_short_title"`
	ScriptureText   string `json:"scripture_text"`
}

// EmbedText returns the string submitted to the embedding model for this
// verse. The title is included so that references ("Genesis 1:1") match
// semantically as well as the verse body.
func (v Verse) EmbedText() string {
	return v.VerseTitle + ": " + v.ScriptureText
}

// Load reads the corpus file and returns its verses in file order.
// Returns ErrCorpusNotFound if the file does not exist; JSON errors
// propagate unmodified.
func Load(path string) ([]Verse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCorpusNotFound, path)
		}
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var verses []Verse
	if err := json.Unmarshal(data, &verses); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}
	return verses, nil
}
