package vocab

// Word is a single vocabulary entry assembled from the CSV inventories.
type Word struct {
	Text          string
	Pronunciation string
	// Characters lists the characters linked to this word, in the order
	// they were first linked. A character row links only the characters
	// it names itself; a word row links every character of the word.
	Characters   []string
	Translations Translations
}

// HasTranslations reports whether at least one translation type carries a
// non-empty meaning. Words without translations are excluded from decks.
func (w *Word) HasTranslations() bool {
	return !w.Translations.Empty()
}

// Translations groups meanings by word type ("сущ", "глагол", ...) while
// preserving the order types were first seen.
type Translations struct {
	types    []string
	meanings map[string][]string
}

// Add appends meanings under the given type, registering the type on
// first use. Repeated types accumulate.
func (t *Translations) Add(wordType string, meanings ...string) {
	if t.meanings == nil {
		t.meanings = make(map[string][]string)
	}
	if _, ok := t.meanings[wordType]; !ok {
		t.types = append(t.types, wordType)
	}
	t.meanings[wordType] = append(t.meanings[wordType], meanings...)
}

// Types returns the translation types in first-seen order.
func (t Translations) Types() []string {
	return append([]string(nil), t.types...)
}

// Meanings returns the meanings recorded under a type.
func (t Translations) Meanings(wordType string) []string {
	return append([]string(nil), t.meanings[wordType]...)
}

// Empty reports whether no type carries a meaning.
func (t Translations) Empty() bool {
	for _, typ := range t.types {
		if len(t.meanings[typ]) > 0 {
			return false
		}
	}
	return true
}

// CharAnalysis is the per-character breakdown rendered on card backs.
// Both lists keep first-insertion order and are unfiltered; callers
// exclude the word or character under analysis themselves.
type CharAnalysis struct {
	Words      []string // words linked to the character
	Homophones []string // characters from the same pronunciation row
}

// Stats summarizes lexicon contents.
type Stats struct {
	Words      int `json:"words"`
	Characters int `json:"characters"`
	Translated int `json:"translated"`
}
