package card

import (
	"fmt"
	"html"
	"strings"

	"github.com/ManuGH/zi2anki/internal/vocab"
)

// Example lists are capped so a common character cannot flood the back
// of a card.
const (
	maxUsageWords     = 10
	maxCharHomophones = 10
)

// Section labels on the card back.
const (
	labelUsage          = "Употребление"
	labelSameSound      = "Однозвучные"
	labelWordHomophones = "Слова, звучащие также"
)

// Front renders the question side: the word, its pronunciation when
// known, and the audio reference when an audio file is packaged with
// the deck. All user text is HTML-escaped; the audio file name is a
// generated hash and stays verbatim.
func Front(word, pronunciation, audioFile string) string {
	parts := []string{fmt.Sprintf(`<div class="word">%s</div>`, html.EscapeString(word))}
	if pronunciation != "" {
		parts = append(parts, fmt.Sprintf(`<div class="pronunciation">%s</div>`, html.EscapeString(pronunciation)))
	}
	if audioFile != "" {
		parts = append(parts, fmt.Sprintf("[sound:%s]", audioFile))
	}
	return strings.Join(parts, "\n")
}

// Back renders the translation block, one heading per word type with a
// bulleted meaning list.
func Back(tr vocab.Translations) string {
	if tr.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="translations">`)
	for _, typ := range tr.Types() {
		meanings := tr.Meanings(typ)
		if len(meanings) == 0 {
			continue
		}
		fmt.Fprintf(&b, `<div class="translation-type">%s:</div>`, html.EscapeString(typ))
		for _, m := range meanings {
			fmt.Fprintf(&b, `<div class="translation-meaning">• %s</div>`, html.EscapeString(m))
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}

// Examples renders the per-character analysis followed by the word's
// homophones. The word itself is excluded from usage lists and each
// character from its own homophone list. A word with no linked
// characters renders nothing.
func Examples(lex *vocab.Lexicon, w *vocab.Word) string {
	if len(w.Characters) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<div class="character-analysis">`)
	for _, char := range w.Characters {
		analysis := lex.CharAnalysis(char)

		b.WriteString(`<div class="char-item">`)
		fmt.Fprintf(&b, `<div class="char-title">%s</div>`, html.EscapeString(char))

		if usage := capList(exclude(analysis.Words, w.Text), maxUsageWords); len(usage) > 0 {
			fmt.Fprintf(&b, `<div class="char-words">%s: %s</div>`, labelUsage, escapeJoin(usage))
		}
		if same := capList(exclude(analysis.Homophones, char), maxCharHomophones); len(same) > 0 {
			fmt.Fprintf(&b, `<div class="char-pronunciation">%s: %s</div>`, labelSameSound, escapeJoin(same))
		}
		b.WriteString(`</div>`)
	}
	if homophones := lex.WordHomophones(w.Text); len(homophones) > 0 {
		fmt.Fprintf(&b, `<div class="char-pronunciation">%s: %s</div>`, labelWordHomophones, escapeJoin(homophones))
	}
	b.WriteString(`</div>`)
	return b.String()
}

func exclude(list []string, drop string) []string {
	var out []string
	for _, v := range list {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}

func capList(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func escapeJoin(items []string) string {
	escaped := make([]string, len(items))
	for i, v := range items {
		escaped[i] = html.EscapeString(v)
	}
	return strings.Join(escaped, ", ")
}
