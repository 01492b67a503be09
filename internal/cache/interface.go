package cache

import "time"

// Service defines the interface for cache operations
type Service interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl *time.Duration)
	Delete(key string) bool
	Clear()
	Cleanup() int
	Stats() Stats
}

// Ensure Cache implements Service
var _ Service = (*Cache)(nil)
