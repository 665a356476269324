// Package card defines the Chinese dictionary note type and renders the
// HTML sides of its cards from lexicon entries.
package card

import "github.com/ManuGH/zi2anki/internal/anki"

// Model and deck identities are fixed: Anki matches notes across
// imports by these ids, so changing them would duplicate every card in
// an existing collection.
const (
	ModelID   int64 = 1607392319
	ModelName       = "Chinese Dictionary Model"
	DeckID    int64 = 2059400110
)

// Field order inside a note.
const (
	FieldWord = iota
	FieldPronunciation
	FieldFront
	FieldBack
	FieldExamples
	FieldAudio
	fieldCount
)

var fieldNames = [fieldCount]string{"Word", "Pronunciation", "Front", "Back", "Examples", "Audio"}

// Model returns the dictionary note type: two templates asking in both
// directions, both answering with the opposite side plus the character
// analysis.
func Model() anki.Model {
	return anki.Model{
		ID:     ModelID,
		Name:   ModelName,
		Fields: append([]string(nil), fieldNames[:]...),
		Templates: []anki.Template{
			{
				Name: "Card 1 (Front → Back)",
				Qfmt: "{{Front}}",
				Afmt: `{{FrontSide}}<hr id="answer">{{Back}}{{Examples}}`,
			},
			{
				Name: "Card 2 (Back → Front)",
				Qfmt: "{{Back}}",
				Afmt: `{{FrontSide}}<hr id="answer">{{Front}}{{Examples}}`,
			},
		},
		CSS:       modelCSS,
		SortField: FieldWord,
	}
}

const modelCSS = `.card {
    font-family: Arial, sans-serif;
    font-size: 20px;
    text-align: center;
    color: #333;
}
.word {
    font-size: 48px;
    font-weight: bold;
    margin: 40px 0;
    color: #2c3e50;
}
.pronunciation {
    font-size: 24px;
    color: #7f8c8d;
    margin-top: 20px;
}
.translations {
    text-align: left;
    margin: 20px 0;
}
.translation-type {
    font-weight: bold;
    color: #3498db;
    margin-top: 15px;
}
.translation-meaning {
    margin-left: 20px;
    margin-top: 5px;
}
.character-analysis {
    text-align: left;
    margin: 20px 0;
    border-top: 2px solid #ecf0f1;
    padding-top: 20px;
}
.char-item {
    margin: 15px 0;
}
.char-title {
    font-weight: bold;
    font-size: 28px;
    color: #2c3e50;
    margin-bottom: 10px;
}
.char-words, .char-pronunciation {
    margin-left: 20px;
    margin-top: 5px;
    color: #555;
}
`
