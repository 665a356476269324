package audiocache

import (
	"fmt"

	"github.com/ManuGH/zi2anki/internal/config"
)

// Open constructs the audio store selected by cfg.Backend.
func Open(cfg config.AudioConfig) (Store, error) {
	switch cfg.Backend {
	case config.AudioBackendFS, "":
		return NewFS(cfg.Dir)
	case config.AudioBackendBadger:
		return NewBadger(cfg.BadgerDir)
	case config.AudioBackendRedis:
		return NewRedis(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
	default:
		return nil, fmt.Errorf("unknown audio backend %q", cfg.Backend)
	}
}
