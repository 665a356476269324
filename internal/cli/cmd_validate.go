package cli

import (
	"fmt"
	"io"

	"github.com/ManuGH/zi2anki/internal/vocab"
	"github.com/spf13/cobra"
)

func newValidateCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <characters.csv> <words.csv>",
		Short: "Parse vocabulary CSV files and report what a build would see",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(out, args[0], args[1])
		},
	}
}

func runValidate(out io.Writer, charsPath, wordsPath string) error {
	lex := vocab.NewLexicon()
	if err := lex.LoadCharactersFile(charsPath); err != nil {
		return fmt.Errorf("characters: %w", err)
	}
	if err := lex.LoadWordsFile(wordsPath); err != nil {
		return fmt.Errorf("words: %w", err)
	}

	stats := lex.Stats()
	fmt.Fprintf(out, "words:      %d\n", stats.Words)
	fmt.Fprintf(out, "characters: %d\n", stats.Characters)
	fmt.Fprintf(out, "translated: %d\n", stats.Translated)
	if n := stats.Words - stats.Translated; n > 0 {
		fmt.Fprintf(out, "without translation: %d (excluded from decks)\n", n)
	}

	if stats.Words == 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("no words parsed from %s", wordsPath)}
	}
	return nil
}
