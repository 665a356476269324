package anki

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The col row carries four JSON blobs. Their shapes below mirror what
// Anki's importer reads for schema version 11.

type confJSON struct {
	ActiveDecks   []int64 `json:"activeDecks"`
	AddToCur      bool    `json:"addToCur"`
	CollapseTime  int     `json:"collapseTime"`
	CurDeck       int64   `json:"curDeck"`
	CurModel      string  `json:"curModel"`
	DueCounts     bool    `json:"dueCounts"`
	EstTimes      bool    `json:"estTimes"`
	NewBury       bool    `json:"newBury"`
	NewSpread     int     `json:"newSpread"`
	NextPos       int     `json:"nextPos"`
	SortBackwards bool    `json:"sortBackwards"`
	SortType      string  `json:"sortType"`
	TimeLim       int     `json:"timeLim"`
}

type fieldJSON struct {
	Font   string   `json:"font"`
	Media  []string `json:"media"`
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	RTL    bool     `json:"rtl"`
	Size   int      `json:"size"`
	Sticky bool     `json:"sticky"`
}

type templateJSON struct {
	Afmt  string `json:"afmt"`
	Bafmt string `json:"bafmt"`
	Bqfmt string `json:"bqfmt"`
	Did   *int64 `json:"did"`
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
}

type modelJSON struct {
	CSS       string         `json:"css"`
	Did       int64          `json:"did"`
	Flds      []fieldJSON    `json:"flds"`
	ID        string         `json:"id"`
	LatexPost string         `json:"latexPost"`
	LatexPre  string         `json:"latexPre"`
	Mod       int64          `json:"mod"`
	Name      string         `json:"name"`
	Req       []any          `json:"req"`
	SortF     int            `json:"sortf"`
	Tags      []string       `json:"tags"`
	Tmpls     []templateJSON `json:"tmpls"`
	Type      int            `json:"type"`
	Usn       int            `json:"usn"`
	Vers      []string       `json:"vers"`
}

type deckJSON struct {
	Collapsed bool   `json:"collapsed"`
	Conf      int    `json:"conf"`
	Desc      string `json:"desc"`
	Dyn       int    `json:"dyn"`
	ExtendNew int    `json:"extendNew"`
	ExtendRev int    `json:"extendRev"`
	ID        int64  `json:"id"`
	LrnToday  [2]int `json:"lrnToday"`
	Mod       int64  `json:"mod"`
	Name      string `json:"name"`
	NewToday  [2]int `json:"newToday"`
	RevToday  [2]int `json:"revToday"`
	TimeToday [2]int `json:"timeToday"`
	Usn       int    `json:"usn"`
}

const (
	latexPre = "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
		"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n" +
		"\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n"
	latexPost = "\\end{document}"

	defaultFont     = "Liberation Sans"
	defaultFontSize = 20
)

func marshalConf(modelID int64) (string, error) {
	conf := confJSON{
		ActiveDecks:  []int64{1},
		AddToCur:     true,
		CollapseTime: 1200,
		CurDeck:      1,
		CurModel:     strconv.FormatInt(modelID, 10),
		DueCounts:    true,
		EstTimes:     true,
		NewBury:      true,
		NextPos:      1,
		SortType:     "noteFld",
	}
	return marshalBlob("conf", conf)
}

func marshalModels(m Model, deckID, mod int64) (string, error) {
	flds := make([]fieldJSON, len(m.Fields))
	for i, name := range m.Fields {
		flds[i] = fieldJSON{
			Font:  defaultFont,
			Media: []string{},
			Name:  name,
			Ord:   i,
			Size:  defaultFontSize,
		}
	}
	tmpls := make([]templateJSON, len(m.Templates))
	for i, t := range m.Templates {
		tmpls[i] = templateJSON{
			Afmt: t.Afmt,
			Name: t.Name,
			Ord:  i,
			Qfmt: t.Qfmt,
		}
	}
	models := map[string]modelJSON{
		strconv.FormatInt(m.ID, 10): {
			CSS:       m.CSS,
			Did:       deckID,
			Flds:      flds,
			ID:        strconv.FormatInt(m.ID, 10),
			LatexPost: latexPost,
			LatexPre:  latexPre,
			Mod:       mod,
			Name:      m.Name,
			Req:       m.requirements(),
			SortF:     m.SortField,
			Tags:      []string{},
			Tmpls:     tmpls,
			Usn:       -1,
			Vers:      []string{},
		},
	}
	return marshalBlob("models", models)
}

func marshalDecks(deck DeckInfo) (string, error) {
	decks := map[string]deckJSON{
		"1": {
			Conf:      1,
			ExtendNew: 10,
			ExtendRev: 50,
			ID:        1,
			LrnToday:  [2]int{163, 2},
			Mod:       1425278051,
			Name:      "Default",
			NewToday:  [2]int{163, 2},
			RevToday:  [2]int{163, 0},
			TimeToday: [2]int{163, 23146},
			Usn:       -1,
		},
		strconv.FormatInt(deck.ID, 10): {
			Conf:      1,
			Desc:      deck.Description,
			ExtendRev: 50,
			ID:        deck.ID,
			LrnToday:  [2]int{163, 2},
			Mod:       1425278051,
			Name:      deck.Name,
			NewToday:  [2]int{163, 2},
			RevToday:  [2]int{163, 0},
			TimeToday: [2]int{163, 23146},
			Usn:       -1,
		},
	}
	return marshalBlob("decks", decks)
}

func marshalDConf() (string, error) {
	dconf := map[string]any{
		"1": map[string]any{
			"autoplay": true,
			"id":       1,
			"lapse": map[string]any{
				"delays":      []float64{10},
				"leechAction": 0,
				"leechFails":  8,
				"minInt":      1,
				"mult":        0,
			},
			"maxTaken": 60,
			"mod":      0,
			"name":     "Default",
			"new": map[string]any{
				"bury":          true,
				"delays":        []float64{1, 10},
				"initialFactor": 2500,
				"ints":          []int{1, 4, 7},
				"order":         1,
				"perDay":        20,
				"separate":      true,
			},
			"replayq": true,
			"rev": map[string]any{
				"bury":     true,
				"ease4":    1.3,
				"fuzz":     0.05,
				"ivlFct":   1,
				"maxIvl":   36500,
				"minSpace": 1,
				"perDay":   100,
			},
			"timer": 0,
			"usn":   0,
		},
	}
	return marshalBlob("dconf", dconf)
}

func marshalBlob(name string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return string(b), nil
}
