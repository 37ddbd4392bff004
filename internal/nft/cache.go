package nft

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joelkehle/mark3/internal/telemetry"
)

// CachedLister memoizes listings per owner for a short TTL. Errors are not
// cached.
type CachedLister struct {
	inner Lister
	lru   *expirable.LRU[string, []NFT]
}

func NewCachedLister(inner Lister, size int, ttl time.Duration) *CachedLister {
	return &CachedLister{
		inner: inner,
		lru:   expirable.NewLRU[string, []NFT](size, nil, ttl),
	}
}

func (c *CachedLister) OwnedBy(ctx context.Context, owner string) ([]NFT, error) {
	key := strings.ToLower(owner)
	if nfts, ok := c.lru.Get(key); ok {
		telemetry.NFTCacheLookups.WithLabelValues("hit").Inc()
		return nfts, nil
	}
	telemetry.NFTCacheLookups.WithLabelValues("miss").Inc()

	nfts, err := c.inner.OwnedBy(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, nfts)
	return nfts, nil
}
