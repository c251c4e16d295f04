package cache

import (
	"log/slog"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/service"
)

// New returns a Redis cache when an address is configured, otherwise an in-process one.
func New(cfg config.CacheSettings) (service.Cache, error) {
	if cfg.RedisAddr == "" {
		common.LogDebug("Using in-process response cache", common.Fields{"ttl": cfg.TTL})
		return NewMemory(cfg.TTL), nil
	}

	c, err := NewRedis(cfg.RedisAddr, cfg.TTL)
	if err != nil {
		return nil, err
	}
	slog.Info("Using redis response cache", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return c, nil
}
