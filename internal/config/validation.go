// SPDX-License-Identifier: MIT

package config

import (
	"strings"

	xnet "github.com/ManuGH/zi2anki/internal/platform/net"
	"github.com/ManuGH/zi2anki/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	// TTS endpoint (not needed when audio generation is off)
	if !cfg.TTS.Disabled {
		v.URL("TTS.BaseURL", cfg.TTS.BaseURL, []string{"http", "https"})
		v.NotEmpty("TTS.Lang", cfg.TTS.Lang)
		v.Range("TTS.Workers", cfg.TTS.Workers, 1, 32)
		v.Range("TTS.Retries", cfg.TTS.Retries, 0, 10)
		v.Positive("TTS.Burst", cfg.TTS.Burst)
		if cfg.TTS.Rate <= 0 {
			v.AddError("TTS.Rate", "rate must be positive", cfg.TTS.Rate)
		}
		if cfg.TTS.Timeout <= 0 {
			v.AddError("TTS.Timeout", "timeout must be positive", cfg.TTS.Timeout.String())
		}
		if cfg.TTS.EnforcePolicy {
			for _, h := range cfg.TTS.AllowHosts {
				if _, err := xnet.NormalizeHost(h); err != nil {
					v.AddError("TTS.AllowHosts", err.Error(), h)
				}
			}
			if _, err := xnet.ParseCIDRs(cfg.TTS.AllowCIDRs); err != nil {
				v.AddError("TTS.AllowCIDRs", err.Error(), strings.Join(cfg.TTS.AllowCIDRs, ","))
			}
		}
	}

	// Artifact locations
	v.Directory("DataDir", cfg.DataDir, false)
	v.NotEmpty("DeckName", cfg.DeckName)
	v.NotEmpty("DeckFile", cfg.DeckFile)
	v.Path("DeckFile", cfg.DeckFile)

	// Audio cache backend
	v.OneOf("Audio.Backend", cfg.Audio.Backend, []string{AudioBackendFS, AudioBackendBadger, AudioBackendRedis})
	switch cfg.Audio.Backend {
	case AudioBackendFS:
		v.NotEmpty("Audio.Dir", cfg.Audio.Dir)
	case AudioBackendRedis:
		v.NotEmpty("Audio.RedisAddr", cfg.Audio.RedisAddr)
		v.NonNegative("Audio.RedisDB", cfg.Audio.RedisDB)
		if cfg.Audio.RedisTTL < 0 {
			v.AddError("Audio.RedisTTL", "ttl cannot be negative", cfg.Audio.RedisTTL.String())
		}
	}

	// HTTP API
	v.ListenAddr("API.Listen", cfg.API.Listen)
	if cfg.API.RateLimitEnabled {
		if cfg.API.RateLimitRPS <= 0 {
			v.AddError("API.RateLimitRPS", "rate must be positive", cfg.API.RateLimitRPS)
		}
		v.Positive("API.RateLimitBurst", cfg.API.RateLimitBurst)
	}

	// Observability
	if _, err := validate.ParseLogLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		v.AddError("LogLevel", err.Error(), cfg.LogLevel)
	}
	if cfg.Telemetry.Enabled {
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.OneOf("Telemetry.Protocol", cfg.Telemetry.Protocol, []string{"grpc", "http"})
		if cfg.Telemetry.SampleRatio < 0 || cfg.Telemetry.SampleRatio > 1 {
			v.AddError("Telemetry.SampleRatio", "must be between 0 and 1", cfg.Telemetry.SampleRatio)
		}
	}

	return v.Err()
}
