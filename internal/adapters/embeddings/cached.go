package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ayushthakur13/fin-vault-ai/internal/adapters/redis"
	"github.com/ayushthakur13/fin-vault-ai/pkg/logger"
)

// CachedProvider decorates a Provider with a Redis-backed cache. Caching is an
// optional optimization layer; any cache failure falls through to the inner
// provider.
type CachedProvider struct {
	inner Provider
	cache *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

// NewCachedProvider wraps an embedding provider with a Redis cache
func NewCachedProvider(inner Provider, cache *redis.Client, ttl time.Duration) *CachedProvider {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.Get().With("component", "embedding_cache"),
	}
}

// GenerateEmbedding returns a cached embedding when available, otherwise
// delegates to the inner provider and stores the result.
func (p *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := p.cacheKey(text)

	if data, err := p.cache.GetBytes(ctx, key); err == nil {
		var embedding []float32
		if err := json.Unmarshal(data, &embedding); err == nil && len(embedding) > 0 {
			p.log.Debugw("Embedding cache hit", "key", key)
			return embedding, nil
		}
	} else if err != goredis.Nil {
		p.log.Warnw("Embedding cache read failed", "error", err)
	}

	embedding, err := p.inner.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(embedding); err == nil {
		if err := p.cache.SetBytes(ctx, key, data, p.ttl); err != nil {
			p.log.Warnw("Embedding cache write failed", "error", err)
		}
	}

	return embedding, nil
}

// Dimensions returns the inner provider's dimensionality
func (p *CachedProvider) Dimensions() int {
	return p.inner.Dimensions()
}

// Name returns the inner provider's model name
func (p *CachedProvider) Name() string {
	return p.inner.Name()
}

func (p *CachedProvider) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("embedding:%s:%s", p.inner.Name(), hex.EncodeToString(sum[:]))
}
