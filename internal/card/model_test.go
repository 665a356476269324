package card

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModelIdentity(t *testing.T) {
	m := Model()

	if m.ID != 1607392319 {
		t.Errorf("model id = %d", m.ID)
	}
	if m.Name != "Chinese Dictionary Model" {
		t.Errorf("model name = %q", m.Name)
	}
	if DeckID != 2059400110 {
		t.Errorf("deck id = %d", DeckID)
	}
}

func TestModelFields(t *testing.T) {
	m := Model()

	want := []string{"Word", "Pronunciation", "Front", "Back", "Examples", "Audio"}
	if diff := cmp.Diff(want, m.Fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if m.SortField != FieldWord {
		t.Errorf("sort field = %d, want %d", m.SortField, FieldWord)
	}
}

func TestModelTemplates(t *testing.T) {
	m := Model()

	if len(m.Templates) != 2 {
		t.Fatalf("templates = %d, want 2", len(m.Templates))
	}
	fwd, rev := m.Templates[0], m.Templates[1]
	if fwd.Qfmt != "{{Front}}" || rev.Qfmt != "{{Back}}" {
		t.Errorf("qfmt = %q / %q", fwd.Qfmt, rev.Qfmt)
	}
	for _, tmpl := range m.Templates {
		if !strings.Contains(tmpl.Afmt, `<hr id="answer">`) {
			t.Errorf("template %q misses answer divider: %q", tmpl.Name, tmpl.Afmt)
		}
		if !strings.Contains(tmpl.Afmt, "{{Examples}}") {
			t.Errorf("template %q misses examples: %q", tmpl.Name, tmpl.Afmt)
		}
	}
}

func TestModelValid(t *testing.T) {
	if err := Model().Validate(); err != nil {
		t.Errorf("model invalid: %v", err)
	}
}

func TestModelCSSStylesAllBlocks(t *testing.T) {
	for _, class := range []string{
		".card", ".word", ".pronunciation", ".translations", ".translation-type",
		".translation-meaning", ".character-analysis", ".char-item", ".char-title",
		".char-words", ".char-pronunciation",
	} {
		if !strings.Contains(modelCSS, class) {
			t.Errorf("css misses %s", class)
		}
	}
}
