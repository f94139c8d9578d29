// Package graph implements the note relationship engine: tag-overlap
// candidate generation, the edge lifecycle, the embedding rebuild pipeline,
// and vector similarity search.
package graph

import (
	"golang.org/x/sync/singleflight"

	"github.com/hrygo/notegraph/plugin/cache"
	"github.com/hrygo/notegraph/plugin/embed"
	"github.com/hrygo/notegraph/store"
)

// Service carries the store, the similarity cache and the embedder shared by
// all graph operations. It is safe for concurrent use.
type Service struct {
	store    *store.Store
	cache    cache.CacheService
	embedder embed.Embedder

	// collapses concurrent candidate generations for the same owner
	candidateGroup singleflight.Group
}

// NewService creates a graph service.
func NewService(store *store.Store, cacheService cache.CacheService, embedder embed.Embedder) *Service {
	return &Service{
		store:    store,
		cache:    cacheService,
		embedder: embedder,
	}
}
