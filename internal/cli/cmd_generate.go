// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ManuGH/zi2anki/internal/audiocache"
	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/deck"
	"github.com/ManuGH/zi2anki/internal/tts"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type generateOptions struct {
	configPath string
	output     string
	deckName   string
	audioDir   string
	reportsDir string
	noAudio    bool
}

func newGenerateCommand(out io.Writer, build BuildInfo) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate <characters.csv> <words.csv>",
		Short: "Build an Anki deck from vocabulary CSV files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), out, build, args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output .apkg path (default: <data dir>/<deck file>)")
	cmd.Flags().StringVarP(&opts.deckName, "deck-name", "d", "", "deck name shown in Anki")
	cmd.Flags().StringVar(&opts.audioDir, "audio-dir", "", "audio cache directory (fs backend)")
	cmd.Flags().StringVar(&opts.reportsDir, "reports-dir", "", "directory for skipped/unmatched reports")
	cmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "build the deck without audio clips")
	return cmd
}

func runGenerate(ctx context.Context, out io.Writer, build BuildInfo, charsPath, wordsPath string, opts generateOptions) error {
	loader := config.NewLoader(opts.configPath, build.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if opts.deckName != "" {
		cfg.DeckName = opts.deckName
	}
	if opts.audioDir != "" {
		cfg.Audio.Dir = opts.audioDir
	}
	outputFile := cfg.DeckPath()
	if opts.output != "" {
		outputFile = opts.output
	}
	reportsDir := cfg.ReportsDir()
	if opts.reportsDir != "" {
		reportsDir = opts.reportsDir
	}

	deps := deck.Deps{OnProgress: progressReporter(out)}
	if !opts.noAudio {
		store, err := audiocache.Open(cfg.Audio)
		if err != nil {
			return fmt.Errorf("open audio cache: %w", err)
		}
		defer func() { _ = store.Close() }()
		deps.Store = store

		if !cfg.TTS.Disabled {
			client, err := tts.NewClient(tts.ClientOptions{
				BaseURL: cfg.TTS.BaseURL,
				Lang:    cfg.TTS.Lang,
				Timeout: cfg.TTS.Timeout,
				Rate:    cfg.TTS.Rate,
				Burst:   cfg.TTS.Burst,
				Retries: cfg.TTS.Retries,
			})
			if err != nil {
				return fmt.Errorf("speech client: %w", err)
			}
			pool := tts.NewPool(client, store, tts.PoolConfig{Workers: cfg.TTS.Workers})
			pool.Start()
			defer pool.Stop()
			deps.Fetcher = pool
		}
	}

	st, err := deck.Build(ctx, deps, deck.Options{
		CharactersCSV: charsPath,
		WordsCSV:      wordsPath,
		OutputFile:    outputFile,
		DeckName:      cfg.DeckName,
		ReportsDir:    reportsDir,
		SkipAudio:     opts.noAudio,
	})
	if err != nil {
		return fmt.Errorf("build deck: %w", err)
	}

	fmt.Fprintf(out, "Deck written: %s\n", st.DeckPath)
	fmt.Fprintf(out, "  words: %d  notes: %d  cards: %d  skipped: %d\n", st.Words, st.Notes, st.Cards, st.Skipped)
	if deps.Fetcher != nil {
		fmt.Fprintf(out, "  audio: %d cached, %d fetched, %d failed\n", st.AudioHits, st.AudioFetched, st.AudioFailed)
	}
	for _, r := range st.Reports {
		fmt.Fprintf(out, "  report: %s\n", r)
	}
	return nil
}

// progressReporter renders a progress bar once note rendering starts.
// The bar is created on the first callback because the total is not
// known before the lexicon has loaded.
func progressReporter(out io.Writer) func(done, total int) {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions64(
				int64(total),
				progressbar.OptionSetDescription("rendering notes"),
				progressbar.OptionShowDescriptionAtLineEnd(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprint(out, "\n")
				}),
				progressbar.OptionSetWriter(out),
			)
		}
		_ = bar.Set64(int64(done))
	}
}
