package utils

import (
	"fmt"
	"log/slog"

	"carcat/internal/cache"
	"carcat/internal/catalog"
	"carcat/internal/config"
)

// NewCache creates a response cache from configuration and starts its
// cleanup loop. Callers own the cache and must Close it.
func NewCache(cfg *config.Config, logger *slog.Logger) *cache.Cache {
	c := cache.New(
		cache.WithDefaultTTL(cfg.Cache.DefaultTTL),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
		cache.WithLogger(logger),
	)
	c.Start()
	return c
}

// OpenCatalog opens the SQLite catalog named by configuration
func OpenCatalog(cfg *config.Config) (*catalog.SQLiteStore, error) {
	store, err := catalog.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}
