// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for deck builds and the
// TTS fetch path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zi2anki_builds_total",
		Help: "Total number of deck builds by outcome",
	}, []string{"status"}) // status=success|error

	buildDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zi2anki_build_duration_seconds",
		Help:    "Time spent building a complete deck",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	cardsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zi2anki_cards_generated_total",
		Help: "Total number of cards written into decks",
	})

	wordsSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zi2anki_words_skipped_total",
		Help: "Total number of words excluded from a deck by reason",
	}, []string{"reason"}) // reason=no_translation

	ttsRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zi2anki_tts_requests_total",
		Help: "TTS lookups by outcome",
	}, []string{"outcome"}) // outcome=hit|fetched|negcache|dropped|error

	ttsFetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zi2anki_tts_fetch_duration_seconds",
		Help:    "Time spent fetching a single clip from the TTS endpoint",
		Buckets: prometheus.DefBuckets,
	})

	lastBuildTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zi2anki_last_build_timestamp_seconds",
		Help: "Unix time of the last successful deck build",
	})

	audioCacheClips = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zi2anki_audio_cache_clips",
		Help: "Number of clips in the audio cache",
	})

	lexiconWords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zi2anki_lexicon_words",
		Help: "Words in the lexicon after the last load",
	})

	lexiconCharacters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zi2anki_lexicon_characters",
		Help: "Distinct characters in the lexicon after the last load",
	})

	lexiconTranslated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zi2anki_lexicon_translated",
		Help: "Words carrying at least one translation after the last load",
	})
)

// RecordBuild counts a finished build and observes its duration.
func RecordBuild(status string, seconds float64) {
	buildsTotal.WithLabelValues(status).Inc()
	buildDurationSeconds.Observe(seconds)
}

// RecordBuildSuccess stamps the last successful build.
func RecordBuildSuccess(t time.Time) {
	lastBuildTimestamp.Set(float64(t.Unix()))
}

func AddCardsGenerated(n int) { cardsGeneratedTotal.Add(float64(n)) }

func IncWordSkipped(reason string) { wordsSkippedTotal.WithLabelValues(reason).Inc() }

func IncTTSRequest(outcome string) { ttsRequestsTotal.WithLabelValues(outcome).Inc() }

func ObserveTTSFetch(seconds float64) { ttsFetchDurationSeconds.Observe(seconds) }

func SetAudioCacheClips(n int) { audioCacheClips.Set(float64(n)) }

// RecordLexicon publishes the inventory counts of the last CSV load.
func RecordLexicon(words, characters, translated int) {
	lexiconWords.Set(float64(words))
	lexiconCharacters.Set(float64(characters))
	lexiconTranslated.Set(float64(translated))
}

// GetLastBuildTimestamp returns the current gauge value (for testing).
func GetLastBuildTimestamp() float64 {
	var m dto.Metric
	if err := lastBuildTimestamp.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
