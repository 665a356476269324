package vocab

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Character file layout: column 0 is an index letter (ignored), column 1
// the pronunciation, columns 2-10 up to nine characters, columns 11-15
// up to five comma-separated word lists.
const (
	charColumnStart = 2
	charColumnEnd   = 11
	wordColumnStart = 11
	wordColumnEnd   = 16
)

// sniffWindow bounds how far into the first line the delimiter sniff
// looks.
const sniffWindow = 4096

// LoadCharacters reads the character inventory CSV into the lexicon.
// Rows with fewer than two columns or an empty pronunciation are
// skipped. Characters repeated in later rows take the later row's
// pronunciation.
func (l *Lexicon) LoadCharacters(r io.Reader) error {
	cr := newRowReader(r)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("characters csv: %w", err)
		}
		l.addCharacterRow(row)
	}
}

// LoadCharactersFile opens path and loads it via LoadCharacters.
func (l *Lexicon) LoadCharactersFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open characters csv: %w", err)
	}
	defer f.Close()
	return l.LoadCharacters(f)
}

// LoadWords reads the word translation CSV into the lexicon. Rows with
// fewer than three columns, an empty word or an empty translation cell
// are skipped; an empty pronunciation is allowed. Pronunciations and
// translations from this file always replace earlier values for the
// word.
func (l *Lexicon) LoadWords(r io.Reader) error {
	cr := newRowReader(r)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("words csv: %w", err)
		}
		l.addWordRow(row)
	}
}

// LoadWordsFile opens path and loads it via LoadWords.
func (l *Lexicon) LoadWordsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open words csv: %w", err)
	}
	defer f.Close()
	return l.LoadWords(f)
}

// newRowReader wires up a csv.Reader with the sniffed delimiter. Field
// counts vary between rows, so per-record validation is disabled.
func newRowReader(r io.Reader) *csv.Reader {
	br := bufio.NewReaderSize(r, sniffWindow)
	stripBOM(br)
	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// stripBOM discards a UTF-8 byte order mark so it cannot attach to the
// first cell of the first row.
func stripBOM(br *bufio.Reader) {
	peek, err := br.Peek(3)
	if err == nil && bytes.Equal(peek, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
}

// sniffDelimiter inspects the first line: semicolon wins when present,
// comma otherwise.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(sniffWindow)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	if bytes.IndexByte(peek, ';') >= 0 {
		return ';'
	}
	return ','
}

func (l *Lexicon) addCharacterRow(row []string) {
	if len(row) < 2 {
		return
	}
	pron := cleanField(row[1])
	if pron == "" {
		return
	}

	chars := collectFields(row, charColumnStart, charColumnEnd)
	for _, c := range chars {
		l.charPron[c] = pron
	}

	// All characters of one row share a pronunciation. A single-character
	// row records no homophones.
	if len(chars) > 1 {
		for _, c := range chars {
			set := l.homophoneSet(c)
			for _, other := range chars {
				if other != c {
					set.add(other)
				}
			}
		}
	}

	for _, cell := range collectFields(row, wordColumnStart, wordColumnEnd) {
		for _, text := range splitList(cell) {
			l.linkRowWord(text, pron, chars)
		}
	}
}

// linkRowWord attaches a word from a character row. The word is linked
// only to the characters the row itself names; a word containing none of
// them is dropped. A word seen again accumulates newly matching
// characters and keeps its first pronunciation.
func (l *Lexicon) linkRowWord(text, pron string, rowChars []string) {
	var linked []string
	for _, c := range rowChars {
		if strings.Contains(text, c) {
			linked = append(linked, c)
		}
	}
	if len(linked) == 0 {
		return
	}

	w, ok := l.words[text]
	if !ok {
		w = &Word{
			Text:          text,
			Pronunciation: pron,
			Characters:    append([]string(nil), linked...),
		}
		l.words[text] = w
		l.order = append(l.order, text)
	} else {
		w.Characters = appendMissing(w.Characters, linked)
		if w.Pronunciation == "" {
			w.Pronunciation = pron
		}
	}

	for _, c := range linked {
		l.wordSet(c).add(text)
	}
}

func (l *Lexicon) addWordRow(row []string) {
	if len(row) < 3 {
		return
	}
	text := cleanField(row[0])
	pron := cleanField(row[1])
	raw := cleanField(row[2])
	if text == "" || raw == "" {
		return
	}

	w, ok := l.words[text]
	if !ok {
		w = &Word{
			Text:          text,
			Pronunciation: pron,
			Characters:    uniqueRunes(text),
		}
		l.words[text] = w
		l.order = append(l.order, text)
	} else {
		// The word file carries the pronunciation of the whole word, so
		// it wins over the per-character rows.
		w.Pronunciation = pron
	}
	w.Translations = ParseTranslations(raw)

	// Word rows never contribute character homophones; the row carries no
	// information about which characters sound alike.
	for _, c := range uniqueRunes(text) {
		if _, exists := l.charPron[c]; !exists {
			l.charPron[c] = pron
		}
		l.wordSet(c).add(text)
	}
}

// cleanField trims surrounding whitespace and normalizes to NFC so that
// composed and decomposed spellings of the same text compare equal.
func cleanField(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// collectFields returns the non-empty cleaned cells of row[from:to],
// clamped to the row length.
func collectFields(row []string, from, to int) []string {
	if from > len(row) {
		return nil
	}
	if to > len(row) {
		to = len(row)
	}
	var out []string
	for _, f := range row[from:to] {
		if cleaned := cleanField(f); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// splitList splits a word cell on commas. The list separator is a comma
// regardless of the file delimiter.
func splitList(cell string) []string {
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if cleaned := cleanField(part); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

func appendMissing(dst []string, vals []string) []string {
next:
	for _, v := range vals {
		for _, existing := range dst {
			if existing == v {
				continue next
			}
		}
		dst = append(dst, v)
	}
	return dst
}

func uniqueRunes(s string) []string {
	seen := make(map[rune]struct{}, len(s))
	var out []string
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, string(r))
	}
	return out
}
