package anki

import (
	"fmt"
	"regexp"
)

// Model describes a note type: its fields, card templates and styling.
type Model struct {
	ID        int64
	Name      string
	Fields    []string
	Templates []Template
	CSS       string
	// SortField is the index of the field cards are sorted by.
	SortField int
}

// Template is one card template of a model. Qfmt and Afmt hold the
// question and answer mustache markup.
type Template struct {
	Name string
	Qfmt string
	Afmt string
}

// Note is a single note; Fields must line up with the model's fields.
type Note struct {
	GUID   string
	Fields []string
	Tags   []string
}

// DeckInfo identifies the deck notes are filed under.
type DeckInfo struct {
	ID          int64
	Name        string
	Description string
}

// Validate checks structural soundness before anything is written.
func (m Model) Validate() error {
	if m.ID == 0 {
		return fmt.Errorf("model %q: id must be set", m.Name)
	}
	if len(m.Fields) == 0 {
		return fmt.Errorf("model %q: no fields", m.Name)
	}
	if len(m.Templates) == 0 {
		return fmt.Errorf("model %q: no templates", m.Name)
	}
	if m.SortField < 0 || m.SortField >= len(m.Fields) {
		return fmt.Errorf("model %q: sort field %d out of range", m.Name, m.SortField)
	}
	for _, r := range m.templateRequirements() {
		if len(r.fields) == 0 {
			return fmt.Errorf("model %q: template %q references no model field",
				m.Name, m.Templates[r.ord].Name)
		}
	}
	return nil
}

func (m Model) validateNote(n Note) error {
	if len(n.Fields) != len(m.Fields) {
		return fmt.Errorf("note %q: %d fields, model %q has %d",
			n.GUID, len(n.Fields), m.Name, len(m.Fields))
	}
	return nil
}

var fieldRefPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// templateReq captures which fields a template's question side needs
// before it produces a card.
type templateReq struct {
	ord    int
	mode   string // "all" or "any"
	fields []int
}

// templateRequirements derives the card-generation requirements Anki
// stores as the model's "req". A question side referencing a single
// model field needs that field ("all"); one referencing several fields
// needs at least one of them ("any"). Non-field references such as
// {{FrontSide}} are ignored.
func (m Model) templateRequirements() []templateReq {
	index := make(map[string]int, len(m.Fields))
	for i, f := range m.Fields {
		index[f] = i
	}

	reqs := make([]templateReq, 0, len(m.Templates))
	for ord, tmpl := range m.Templates {
		refs := []int{}
		seen := make(map[int]bool)
		for _, match := range fieldRefPattern.FindAllStringSubmatch(tmpl.Qfmt, -1) {
			if i, ok := index[match[1]]; ok && !seen[i] {
				seen[i] = true
				refs = append(refs, i)
			}
		}
		mode := "any"
		if len(refs) == 1 {
			mode = "all"
		}
		reqs = append(reqs, templateReq{ord: ord, mode: mode, fields: refs})
	}
	return reqs
}

// requirements renders templateRequirements in the JSON shape Anki
// expects: [[ord, mode, [field ords]], ...].
func (m Model) requirements() []any {
	reqs := m.templateRequirements()
	out := make([]any, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, []any{r.ord, r.mode, r.fields})
	}
	return out
}
