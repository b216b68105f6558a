package memory

import (
	"time"

	"docchat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const (
	defaultExpiration = 5 * time.Minute
	cleanupInterval   = 10 * time.Minute
)

// DocumentCache keeps per-session document lists in memory so citation
// resolution does not hit the database on every assistant reply. Entries
// are invalidated on ingestion and session delete.
type DocumentCache struct {
	store *cache.Cache
}

func NewDocumentCache() *DocumentCache {
	return &DocumentCache{
		store: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *DocumentCache) Get(sessionId uuid.UUID) ([]*entity.Document, bool) {
	if v, found := c.store.Get(sessionId.String()); found {
		if docs, ok := v.([]*entity.Document); ok {
			return docs, true
		}
	}
	return nil, false
}

func (c *DocumentCache) Set(sessionId uuid.UUID, docs []*entity.Document) {
	c.store.Set(sessionId.String(), docs, cache.DefaultExpiration)
}

func (c *DocumentCache) Invalidate(sessionId uuid.UUID) {
	c.store.Delete(sessionId.String())
}
