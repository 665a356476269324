package vocab

// Lexicon is the merged view over both CSV inventories. It is not safe
// for concurrent mutation; load everything before querying.
type Lexicon struct {
	words map[string]*Word
	order []string

	charPron   map[string]string
	charWords  map[string]*orderedSet
	homophones map[string]*orderedSet
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		words:      make(map[string]*Word),
		charPron:   make(map[string]string),
		charWords:  make(map[string]*orderedSet),
		homophones: make(map[string]*orderedSet),
	}
}

// Len returns the number of distinct words.
func (l *Lexicon) Len() int {
	return len(l.order)
}

// Words returns all words in the order they were first encountered.
func (l *Lexicon) Words() []string {
	return append([]string(nil), l.order...)
}

// Word looks up a single entry.
func (l *Lexicon) Word(text string) (*Word, bool) {
	w, ok := l.words[text]
	return w, ok
}

// CharAnalysis returns the usage words and row homophones recorded for a
// character. Unknown characters yield an empty analysis.
func (l *Lexicon) CharAnalysis(char string) CharAnalysis {
	var a CharAnalysis
	if set, ok := l.charWords[char]; ok {
		a.Words = set.values()
	}
	if set, ok := l.homophones[char]; ok {
		a.Homophones = set.values()
	}
	return a
}

// CharPronunciation returns the pronunciation recorded for a character.
func (l *Lexicon) CharPronunciation(char string) (string, bool) {
	p, ok := l.charPron[char]
	return p, ok
}

// WordHomophones returns the other words sharing this word's
// pronunciation, in lexicon order. Words without a pronunciation never
// match.
func (l *Lexicon) WordHomophones(text string) []string {
	w, ok := l.words[text]
	if !ok || w.Pronunciation == "" {
		return nil
	}
	var out []string
	for _, other := range l.order {
		if other == text {
			continue
		}
		if l.words[other].Pronunciation == w.Pronunciation {
			out = append(out, other)
		}
	}
	return out
}

// Stats counts words, known characters and words carrying translations.
func (l *Lexicon) Stats() Stats {
	s := Stats{Words: len(l.order), Characters: len(l.charPron)}
	for _, text := range l.order {
		if l.words[text].HasTranslations() {
			s.Translated++
		}
	}
	return s
}

func (l *Lexicon) wordSet(char string) *orderedSet {
	set, ok := l.charWords[char]
	if !ok {
		set = newOrderedSet()
		l.charWords[char] = set
	}
	return set
}

func (l *Lexicon) homophoneSet(char string) *orderedSet {
	set, ok := l.homophones[char]
	if !ok {
		set = newOrderedSet()
		l.homophones[char] = set
	}
	return set
}

// orderedSet deduplicates strings while keeping first-insertion order.
type orderedSet struct {
	seen map[string]struct{}
	list []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.list = append(s.list, v)
}

func (s *orderedSet) values() []string {
	return append([]string(nil), s.list...)
}
