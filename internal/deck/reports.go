package deck

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/zi2anki/internal/vocab"
)

const (
	reportNoTranslation = "words_without_translation.csv"
	reportErrors        = "processing_errors.csv"
)

// writeReports emits the two per-build CSV reports and returns their
// paths. An empty dir disables reporting.
func writeReports(dir string, lex *vocab.Lexicon, words, skipped []string, audioFailures map[string]error) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("reports dir: %w", err)
	}

	noTranslation := [][]string{{"word", "pronunciation"}}
	for _, text := range skipped {
		pron := ""
		if w, ok := lex.Word(text); ok {
			pron = w.Pronunciation
		}
		noTranslation = append(noTranslation, []string{text, pron})
	}

	// Iterate failures in lexicon order so the report is reproducible.
	errRows := [][]string{{"word", "error"}}
	for _, text := range words {
		if err, ok := audioFailures[text]; ok {
			errRows = append(errRows, []string{text, err.Error()})
		}
	}

	paths := make([]string, 0, 2)
	for _, rep := range []struct {
		name string
		rows [][]string
	}{
		{reportNoTranslation, noTranslation},
		{reportErrors, errRows},
	} {
		path := filepath.Join(dir, rep.name)
		if err := writeCSV(path, rep.rows); err != nil {
			return nil, fmt.Errorf("report %s: %w", rep.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSV(path string, rows [][]string) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer func() { _ = pf.Cleanup() }()

	cw := csv.NewWriter(pf)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}
