// Package deck orchestrates a complete build: load the CSV inventories,
// resolve audio, render cards and write the .apkg plus report files.
package deck

import (
	"context"
	"crypto/md5" // #nosec G501 -- note GUIDs dedupe deck re-imports, not a security boundary
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/zi2anki/internal/anki"
	"github.com/ManuGH/zi2anki/internal/audiocache"
	"github.com/ManuGH/zi2anki/internal/card"
	zlog "github.com/ManuGH/zi2anki/internal/log"
	"github.com/ManuGH/zi2anki/internal/metrics"
	"github.com/ManuGH/zi2anki/internal/tts"
	"github.com/ManuGH/zi2anki/internal/vocab"
)

const reasonNoTranslation = "no_translation"

// AudioFetcher resolves a batch of words into the audio store.
// *tts.Pool implements it.
type AudioFetcher interface {
	FetchBatch(ctx context.Context, words []string) tts.BatchResult
}

// Deps carries the collaborators a build needs. Store and Fetcher may
// both be nil for audio-less builds; a Store without a Fetcher reuses
// cached clips without fetching new ones.
type Deps struct {
	Store   audiocache.Store
	Fetcher AudioFetcher
	Clock   func() time.Time // nil = time.Now

	// OnProgress is called every ten words and once at the end.
	OnProgress func(done, total int)
}

// Options describes one build.
type Options struct {
	CharactersCSV string
	WordsCSV      string
	OutputFile    string
	DeckName      string
	ReportsDir    string // "" = no report files
	SkipAudio     bool
}

// Status is the outcome of a build, served by the status endpoint.
type Status struct {
	BuildID      string    `json:"build_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Words        int       `json:"words"`
	Notes        int       `json:"notes"`
	Cards        int       `json:"cards"`
	Skipped      int       `json:"skipped"`
	SkippedWords []string  `json:"-"`
	AudioHits    int       `json:"audio_hits"`
	AudioFetched int       `json:"audio_fetched"`
	AudioFailed  int       `json:"audio_failed"`
	DeckPath     string    `json:"deck_path,omitempty"`
	Reports      []string  `json:"reports,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Build runs one complete deck build.
func Build(ctx context.Context, deps Deps, opts Options) (*Status, error) {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	buildID := uuid.NewString()
	ctx = zlog.ContextWithBuildID(ctx, buildID)
	logger := zlog.WithComponentFromContext(ctx, "deck")

	status := &Status{BuildID: buildID, StartedAt: clock()}
	logger.Info().
		Str("event", "build.start").
		Str(zlog.FieldDeck, opts.DeckName).
		Str("chars_csv", opts.CharactersCSV).
		Str("words_csv", opts.WordsCSV).
		Msg("starting deck build")

	lex := vocab.NewLexicon()
	if err := lex.LoadCharactersFile(opts.CharactersCSV); err != nil {
		return fail(status, clock, err)
	}
	if err := lex.LoadWordsFile(opts.WordsCSV); err != nil {
		return fail(status, clock, err)
	}

	words := lex.Words()
	status.Words = len(words)
	stats := lex.Stats()
	metrics.RecordLexicon(stats.Words, stats.Characters, stats.Translated)
	if len(words) == 0 {
		return fail(status, clock, fmt.Errorf("no words found in %s", opts.WordsCSV))
	}
	logger.Info().
		Str("event", "lexicon.loaded").
		Int("words", stats.Words).
		Int("characters", stats.Characters).
		Int("translated", stats.Translated).
		Msg("lexicon loaded")

	// Resolve audio up front so card rendering sees final availability.
	audioFailures := map[string]error{}
	if !opts.SkipAudio && deps.Fetcher != nil {
		batch := deps.Fetcher.FetchBatch(ctx, translatedWords(lex, words))
		status.AudioHits = batch.Hits
		status.AudioFetched = batch.Fetched
		status.AudioFailed = len(batch.Failed)
		audioFailures = batch.Failed
		logger.Info().
			Str("event", "audio.resolved").
			Int("hits", batch.Hits).
			Int("fetched", batch.Fetched).
			Int("failed", len(batch.Failed)).
			Msg("audio clips resolved")
	}

	notes := make([]anki.Note, 0, len(words))
	media := make([]anki.MediaFile, 0, len(words))
	var skipped []string

	for i, text := range words {
		if err := ctx.Err(); err != nil {
			return fail(status, clock, err)
		}

		w, _ := lex.Word(text)
		if !w.HasTranslations() {
			skipped = append(skipped, text)
			metrics.IncWordSkipped(reasonNoTranslation)
			continue
		}

		audioFile := ""
		if clip := clipFor(ctx, deps.Store, opts, audioFailures, text); clip != nil {
			audioFile = audiocache.FileName(text)
			media = append(media, anki.MediaFile{Name: audioFile, Data: clip})
		}

		front := card.Front(w.Text, w.Pronunciation, audioFile)
		back := card.Back(w.Translations)
		examples := card.Examples(lex, w)

		notes = append(notes, anki.Note{
			GUID:   noteGUID(w.Text, w.Pronunciation, front, back, examples),
			Fields: []string{w.Text, w.Pronunciation, front, back, examples, audioFile},
		})

		if deps.OnProgress != nil && ((i+1)%10 == 0 || i+1 == len(words)) {
			deps.OnProgress(i+1, len(words))
		}
	}

	status.Notes = len(notes)
	status.Skipped = len(skipped)
	status.SkippedWords = skipped
	// Front and Back are never blank for an included word, so the model
	// produces both cards of every note.
	status.Cards = 2 * len(notes)

	if len(skipped) > 0 {
		logger.Info().
			Str("event", "build.skipped_words").
			Int("count", len(skipped)).
			Str("words", summariseSkipped(skipped)).
			Msg("words without translation excluded")
	}

	if dir := filepath.Dir(opts.OutputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fail(status, clock, fmt.Errorf("output dir: %w", err))
		}
	}

	writer := anki.Writer{
		Deck:  anki.DeckInfo{ID: card.DeckID, Name: opts.DeckName},
		Model: card.Model(),
		Clock: clock,
	}
	if err := writer.WritePackage(ctx, opts.OutputFile, notes, media); err != nil {
		return fail(status, clock, fmt.Errorf("write package: %w", err))
	}
	status.DeckPath = opts.OutputFile
	logger.Info().
		Str("event", "deck.written").
		Str(zlog.FieldPath, opts.OutputFile).
		Int("notes", len(notes)).
		Int("media", len(media)).
		Msg("deck written")

	// Reports are advisory; a failure must not undo a written deck.
	reports, err := writeReports(opts.ReportsDir, lex, words, skipped, audioFailures)
	if err != nil {
		logger.Warn().Err(err).Str("event", "reports.failed").Msg("report generation failed")
	} else {
		status.Reports = reports
	}

	status.FinishedAt = clock()
	duration := status.FinishedAt.Sub(status.StartedAt)
	metrics.RecordBuild("success", duration.Seconds())
	metrics.RecordBuildSuccess(status.FinishedAt)
	metrics.AddCardsGenerated(status.Cards)

	logger.Info().
		Str("event", "build.success").
		Int("notes", status.Notes).
		Int("cards", status.Cards).
		Int("skipped", status.Skipped).
		Dur("duration", duration).
		Msg("deck build completed")
	return status, nil
}

func fail(status *Status, clock func() time.Time, err error) (*Status, error) {
	status.FinishedAt = clock()
	status.Error = err.Error()
	metrics.RecordBuild("error", status.FinishedAt.Sub(status.StartedAt).Seconds())
	return status, err
}

// translatedWords filters to the words that will become notes; only
// those need audio.
func translatedWords(lex *vocab.Lexicon, words []string) []string {
	out := make([]string, 0, len(words))
	for _, text := range words {
		if w, ok := lex.Word(text); ok && w.HasTranslations() {
			out = append(out, text)
		}
	}
	return out
}

// clipFor returns the cached clip for text, or nil when audio is off,
// failed, or unreadable.
func clipFor(ctx context.Context, store audiocache.Store, opts Options, failures map[string]error, text string) []byte {
	if opts.SkipAudio || store == nil {
		return nil
	}
	if _, failed := failures[text]; failed {
		return nil
	}
	clip, err := store.Get(ctx, text)
	if err != nil {
		return nil
	}
	return clip
}

func summariseSkipped(skipped []string) string {
	if len(skipped) <= 20 {
		return strings.Join(skipped, ", ")
	}
	return strings.Join(skipped[:20], ", ") + "..."
}

// noteGUID derives a stable id from the rendered content so re-importing
// an unchanged deck updates notes instead of duplicating them.
func noteGUID(word, pron, front, back, examples string) string {
	content := strings.Join([]string{word, pron, front, back, examples}, "|")
	sum := md5.Sum([]byte(content)) // #nosec G401 -- see above
	return hex.EncodeToString(sum[:])
}
