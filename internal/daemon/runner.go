// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/zi2anki/internal/audiocache"
	"github.com/ManuGH/zi2anki/internal/audit"
	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/deck"
	zlog "github.com/ManuGH/zi2anki/internal/log"
	"github.com/ManuGH/zi2anki/internal/metrics"
	"github.com/ManuGH/zi2anki/internal/telemetry"
)

const defaultBuildTimeout = 15 * time.Minute

// Runner executes deck builds one at a time. The API, the CSV watcher
// and the reload signal all trigger through it; whoever comes second
// while a build is running is turned away.
type Runner struct {
	cfg     config.AppConfig
	store   audiocache.Store
	fetcher deck.AudioFetcher
	timeout time.Duration

	building atomic.Bool
	wg       sync.WaitGroup

	mu          sync.RWMutex
	last        *deck.Status
	lastSuccess time.Time
	lastBuildID string
	cancelBuild context.CancelFunc

	tracer trace.Tracer
	logger zerolog.Logger
	audit  *audit.Logger
}

// NewRunner creates a build runner. Store and fetcher may be nil for
// audio-less operation.
func NewRunner(cfg config.AppConfig, store audiocache.Store, fetcher deck.AudioFetcher) *Runner {
	return &Runner{
		cfg:     cfg,
		store:   store,
		fetcher: fetcher,
		timeout: defaultBuildTimeout,
		tracer:  telemetry.Tracer("zi2anki/daemon"),
		logger:  zlog.WithComponent("runner"),
		audit:   audit.NewLogger(),
	}
}

// TriggerAsync starts a build in the background. It returns false when a
// build is already in flight.
func (r *Runner) TriggerAsync(reason string) bool {
	if !r.building.CompareAndSwap(false, true) {
		return false
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.building.Store(false)
		r.run(reason)
	}()
	return true
}

// Building reports whether a build is in flight.
func (r *Runner) Building() bool {
	return r.building.Load()
}

// Status returns a copy of the most recent build status, or nil before
// the first build.
func (r *Runner) Status() *deck.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil
	}
	st := *r.last
	return &st
}

// LastBuild returns the finish time and id of the last successful build.
// The health readiness check consumes it.
func (r *Runner) LastBuild() (time.Time, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSuccess, r.lastBuildID
}

// UpdateConfig swaps the build settings used by subsequent builds.
// Settings that feed the running server or the audio plumbing need a
// restart and are not applied here.
func (r *Runner) UpdateConfig(cfg config.AppConfig) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// Close cancels any in-flight build and waits for it to wind down, at
// most until ctx expires.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.RLock()
	cancel := r.cancelBuild
	r.mu.RUnlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) run(reason string) {
	// Builds are detached from their trigger: an API caller gets a 202
	// and the work carries on regardless of what the caller does next.
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	r.mu.Lock()
	r.cancelBuild = cancel
	r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "deck.build")
	defer span.End()

	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()

	r.logger.Info().
		Str("event", "build.triggered").
		Str("reason", reason).
		Msg("starting deck build")
	r.audit.BuildStart(reason, cfg.DeckName)

	start := time.Now()
	status, err := deck.Build(ctx, deck.Deps{
		Store:   r.store,
		Fetcher: r.fetcher,
	}, deck.Options{
		CharactersCSV: cfg.CharsCSV,
		WordsCSV:      cfg.WordsCSV,
		OutputFile:    cfg.DeckPath(),
		DeckName:      cfg.DeckName,
		ReportsDir:    cfg.ReportsDir(),
		SkipAudio:     cfg.TTS.Disabled && r.store == nil,
	})
	duration := time.Since(start)

	r.mu.Lock()
	r.last = status
	if err == nil {
		r.lastSuccess = status.FinishedAt
		r.lastBuildID = status.BuildID
	}
	r.mu.Unlock()

	if status != nil {
		span.SetAttributes(telemetry.BuildAttributes(
			status.BuildID,
			status.Words,
			status.Notes,
			status.Cards,
			status.Skipped,
			duration.Milliseconds(),
		)...)
	}

	if err != nil {
		span.SetAttributes(telemetry.ErrorAttributes(err, "build_failed")...)
		span.SetStatus(codes.Error, "deck build failed")
		r.logger.Error().
			Err(err).
			Str("event", "build.failed").
			Str("reason", reason).
			Dur("duration", duration).
			Msg("deck build failed")
		r.audit.BuildError(reason, cfg.DeckName, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")

	r.updateCacheGauge(ctx)

	r.logger.Info().
		Str("event", "build.finished").
		Str("reason", reason).
		Str(zlog.FieldBuildID, status.BuildID).
		Int("notes", status.Notes).
		Int("cards", status.Cards).
		Dur("duration", duration).
		Msg("deck build finished")
	r.audit.BuildComplete(reason, cfg.DeckName, status.Notes, status.Cards, duration)
}

// updateCacheGauge refreshes the clip-count gauge after a build so the
// metric tracks actual store contents instead of per-process counters.
func (r *Runner) updateCacheGauge(ctx context.Context) {
	if r.store == nil {
		return
	}
	n, err := r.store.Len(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("event", "cache.size_failed").Msg("could not count cached clips")
		return
	}
	metrics.SetAudioCacheClips(n)
}
