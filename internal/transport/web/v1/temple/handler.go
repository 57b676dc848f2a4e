package temple

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	"github.com/mandirapp/daily-darshan/internal/domain"
)

type Handler struct {
	Log      *log.Logger
	Temples  domain.TemplesRepo
	Cache    domain.Cache // optional; nil disables read caching
	CacheTTL int          // seconds
}

func (h *Handler) cacheGet(ctx context.Context, key string, out any) bool {
	if h.Cache == nil {
		return false
	}
	b, err := h.Cache.Get(ctx, key)
	if err != nil || len(b) == 0 {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

func (h *Handler) cacheSet(ctx context.Context, key string, val any) {
	if h.Cache == nil {
		return
	}
	if b, err := json.Marshal(val); err == nil {
		_ = h.Cache.Set(ctx, key, b, h.CacheTTL)
	}
}

// invalidate drops the per-temple entry and the list; every mutation calls it.
func (h *Handler) invalidate(ctx context.Context, id domain.TempleID) {
	if h.Cache == nil {
		return
	}
	_ = h.Cache.Del(ctx, domain.CacheKeyTemple(id), domain.CacheKeyTemplesList)
}

func parseTempleID(s string) (domain.TempleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, domain.ErrBadParams
	}
	return id, nil
}
