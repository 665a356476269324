// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle
// management.
package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/zi2anki/internal/audiocache"
	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/deck"
	"github.com/ManuGH/zi2anki/internal/health"
	zlog "github.com/ManuGH/zi2anki/internal/log"
	"github.com/ManuGH/zi2anki/internal/platform/httpx"
	xnet "github.com/ManuGH/zi2anki/internal/platform/net"
	"github.com/ManuGH/zi2anki/internal/telemetry"
	"github.com/ManuGH/zi2anki/internal/tts"

	"github.com/ManuGH/zi2anki/internal/api"
)

// Bootstrap assembles the full daemon from configuration: audio store,
// speech pool, build runner, health checks, API server and lifecycle
// manager. The returned App blocks in Run until shutdown. cfgHolder
// enables hot reload and may be nil.
func Bootstrap(ctx context.Context, cfg config.AppConfig, cfgHolder *config.ConfigHolder) (*App, error) {
	logger := zlog.WithComponent("daemon")

	// Telemetry is best-effort. A missing collector should not keep the
	// daemon from building decks.
	var provider *telemetry.Provider
	if cfg.Telemetry.Enabled {
		p, err := telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    "zi2anki",
			ServiceVersion: cfg.Version,
			Protocol:       cfg.Telemetry.Protocol,
			Endpoint:       cfg.Telemetry.Endpoint,
			SampleRatio:    cfg.Telemetry.SampleRatio,
			Insecure:       cfg.Telemetry.Insecure,
		})
		if err != nil {
			logger.Warn().
				Err(err).
				Str("event", "telemetry.init_failed").
				Msg("telemetry initialization failed, continuing without tracing")
		} else {
			provider = p
			logger.Info().
				Str("event", "telemetry.initialized").
				Str("endpoint", cfg.Telemetry.Endpoint).
				Float64("sample_ratio", cfg.Telemetry.SampleRatio).
				Msg("telemetry initialized")
		}
	}

	if !cfg.TTS.Disabled && cfg.TTS.EnforcePolicy {
		policy := xnet.Policy{
			Enforce: true,
			Allow: xnet.Allowlist{
				Hosts: cfg.TTS.AllowHosts,
				CIDRs: cfg.TTS.AllowCIDRs,
			},
		}
		if err := xnet.CheckEndpoint(ctx, cfg.TTS.BaseURL, policy); err != nil {
			shutdownQuietly(provider)
			return nil, fmt.Errorf("speech endpoint rejected by outbound policy: %w", err)
		}
	}

	store, err := audiocache.Open(cfg.Audio)
	if err != nil {
		shutdownQuietly(provider)
		return nil, fmt.Errorf("open audio store: %w", err)
	}

	// With TTS disabled the store stays open so already cached clips
	// still land in the deck.
	var pool *tts.Pool
	var fetcher deck.AudioFetcher
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
			_ = store.Close()
			shutdownQuietly(provider)
			return nil, fmt.Errorf("create speech client: %w", err)
		}
		pool = tts.NewPool(client, store, tts.PoolConfig{Workers: cfg.TTS.Workers})
		pool.Start()
		fetcher = pool

		probeEndpoint(ctx, logger, cfg.TTS.BaseURL)
	}

	runner := NewRunner(cfg, store, fetcher)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewDeckChecker(cfg.DeckPath()))
	hm.RegisterChecker(health.NewLastBuildChecker(runner.LastBuild))
	hm.RegisterChecker(health.NewStoreChecker(store))

	apiServer := api.New(cfg, hm, runner)

	deps := Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: apiServer.Handler(),
	}

	mgr, err := NewManager(DefaultServerConfig(cfg.API.Listen), deps)
	if err != nil {
		if pool != nil {
			pool.Stop()
		}
		_ = store.Close()
		shutdownQuietly(provider)
		return nil, fmt.Errorf("create daemon manager: %w", err)
	}

	// Hooks run LIFO: runner first so no build touches the store or the
	// pool after they are gone.
	if provider != nil {
		mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	}
	mgr.RegisterShutdownHook("audio-store", func(context.Context) error {
		return store.Close()
	})
	if pool != nil {
		mgr.RegisterShutdownHook("tts-pool", func(context.Context) error {
			pool.Stop()
			return nil
		})
	}
	mgr.RegisterShutdownHook("build-runner", runner.Close)

	logStartupSummary(logger, cfg)

	return NewApp(logger, mgr, runner, cfgHolder, cfg), nil
}

func logStartupSummary(logger zerolog.Logger, cfg config.AppConfig) {
	logger.Info().Msgf("→ Vocabulary: %s + %s", cfg.CharsCSV, cfg.WordsCSV)
	logger.Info().Msgf("→ Deck: %s (%s)", cfg.DeckName, cfg.DeckPath())
	logger.Info().Msgf("→ Audio backend: %s", cfg.Audio.Backend)
	if cfg.TTS.Disabled {
		logger.Info().Msg("→ TTS: disabled (decks build from cached audio only)")
	} else {
		logger.Info().Msgf("→ TTS: %s (lang: %s, workers: %d)", xnet.SanitizeURL(cfg.TTS.BaseURL), cfg.TTS.Lang, cfg.TTS.Workers)
	}
	if cfg.API.Token != "" {
		logger.Info().Msg("→ API token: configured")
	} else {
		logger.Warn().
			Str("security", "weak").
			Msg("→ API token: NOT configured (build endpoint open). Set ZI2ANKI_API_TOKEN.")
	}
	logger.Info().Msgf("→ Data dir: %s", cfg.DataDir)
}

// probeEndpoint checks once whether the speech endpoint answers at all.
// Any HTTP response counts; the endpoint may well 404 a bare HEAD.
func probeEndpoint(ctx context.Context, logger zerolog.Logger, baseURL string) {
	client := httpx.NewClient(5 * time.Second)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, baseURL, nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn().
			Err(err).
			Str("event", "tts.probe_failed").
			Str(zlog.FieldBaseURL, xnet.SanitizeURL(baseURL)).
			Msg("speech endpoint not reachable, audio fetches may fail")
		return
	}
	_ = resp.Body.Close()
	logger.Info().
		Str("event", "tts.probe_ok").
		Int("status", resp.StatusCode).
		Msg("speech endpoint reachable")
}

func shutdownQuietly(provider *telemetry.Provider) {
	if provider == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = provider.Shutdown(ctx)
}
