package health

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/zi2anki/internal/config"
	"github.com/ManuGH/zi2anki/internal/log"
)

// PerformStartupChecks validates the environment and dependencies before starting the daemon.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	// 1. Data Directory Permissions
	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}

	// 2. Targeted Validations
	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	// Ensure existence; MkdirAll returns nil if it already exists
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("could not create directory %s: %w", path, err)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("✓ Data directory is writable")
	return nil
}

// checkTargetedValidations performs security and runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.AppConfig) error {
	// a. Listen Address (Parseable)
	if cfg.API.Listen != "" {
		_, port, err := net.SplitHostPort(cfg.API.Listen)
		if err != nil {
			return fmt.Errorf("invalid API listen address %q: %w", cfg.API.Listen, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid API listen port %q in %q", port, cfg.API.Listen)
		}
		logger.Info().Str("addr", cfg.API.Listen).Msg("✓ API listen address is valid")
	}

	// b. CSV Inventories (Readable)
	if err := checkFileReadable(cfg.CharsCSV); err != nil {
		return fmt.Errorf("characters csv error: %w", err)
	}
	if err := checkFileReadable(cfg.WordsCSV); err != nil {
		return fmt.Errorf("words csv error: %w", err)
	}
	logger.Info().
		Str("chars_csv", cfg.CharsCSV).
		Str("words_csv", cfg.WordsCSV).
		Msg("✓ CSV inventories are readable")

	// c. TTS Base URL (Syntax + Scheme)
	if cfg.TTS.Disabled {
		logger.Info().Msg("TTS disabled; skipping endpoint check")
	} else {
		u, err := url.Parse(cfg.TTS.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid ZI2ANKI_TTS_BASE_URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("ZI2ANKI_TTS_BASE_URL scheme must be http or https, got: %s", u.Scheme)
		}
		logger.Info().Str("url", cfg.TTS.BaseURL).Msg("✓ TTS base URL is valid")
	}

	// d. Audio Backend Directories
	switch cfg.Audio.Backend {
	case config.AudioBackendFS:
		if err := os.MkdirAll(cfg.Audio.Dir, 0o750); err != nil {
			return fmt.Errorf("failed to ensure audio cache dir %s: %w", cfg.Audio.Dir, err)
		}
		logger.Info().Str("dir", cfg.Audio.Dir).Msg("✓ Audio cache directory available")
	case config.AudioBackendBadger:
		if err := os.MkdirAll(cfg.Audio.BadgerDir, 0o750); err != nil {
			return fmt.Errorf("failed to ensure badger dir %s: %w", cfg.Audio.BadgerDir, err)
		}
		logger.Info().Str("dir", cfg.Audio.BadgerDir).Msg("✓ Badger directory available")
	case config.AudioBackendRedis:
		// Reachability is verified when the client connects.
		logger.Info().Str("addr", cfg.Audio.RedisAddr).Msg("✓ Redis backend configured")
	}

	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
