package domain

import "context"

// Cache keys live here so they do not spread over the codebase.
func CacheKeyDarshan(id TempleID, day DayKey) string { return "darshan:" + id.String() + ":" + day.String() }
func CacheKeyTemple(id TempleID) string              { return "temple:" + id.String() }

const CacheKeyTemplesList = "temples:all"

// Simple k/v interface. Implementation is Redis.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}
