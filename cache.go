package spacetraveling

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/spacetraveling/listing"
	"github.com/eringen/spacetraveling/posts"
	"github.com/eringen/spacetraveling/prismic"
)

// FeedEntry is one post of the RSS feed and sitemap.
type FeedEntry struct {
	posts.Summary
	Updated *time.Time
}

// HomeCache is an in-memory cache of the first listing page and the feed
// posts with TTL. Every viewer's listing starts from the same first page.
type HomeCache struct {
	mu       sync.RWMutex
	first    *listing.State
	feed     []FeedEntry
	fetched  time.Time
	ttl      time.Duration
	source   listing.Lister
	docType  string
	pageSize int
	feedSize int
}

// NewHomeCache creates a HomeCache backed by the given content source.
func NewHomeCache(src listing.Lister, docType string, pageSize, feedSize int, ttl time.Duration) *HomeCache {
	return &HomeCache{source: src, docType: docType, pageSize: pageSize, feedSize: feedSize, ttl: ttl}
}

func (c *HomeCache) valid() bool {
	return c.first != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *HomeCache) Invalidate() {
	c.mu.Lock()
	c.first = nil
	c.feed = nil
	c.mu.Unlock()
}

func (c *HomeCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	first, err := listing.Initial(ctx, c.source, c.docType, c.pageSize)
	if err != nil {
		return err
	}
	resp, err := c.source.ListByType(ctx, c.docType, c.feedSize)
	if err != nil {
		return err
	}
	feed, err := feedEntries(resp)
	if err != nil {
		return err
	}
	c.first = &first
	c.feed = feed
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns the cached first page and feed after ensuring the
// cache is fresh. It tries a read lock first; only takes a write lock if a
// reload is needed.
func (c *HomeCache) ensureLoaded(ctx context.Context) (listing.State, []FeedEntry, error) {
	c.mu.RLock()
	if c.valid() {
		first, feed := *c.first, c.feed
		c.mu.RUnlock()
		return first, feed, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return listing.State{}, nil, err
	}
	return *c.first, c.feed, nil
}

// FirstPage returns the first listing page. Callers must not modify the
// returned Posts slice.
func (c *HomeCache) FirstPage(ctx context.Context) (listing.State, error) {
	first, _, err := c.ensureLoaded(ctx)
	return first, err
}

// Feed returns the newest posts for RSS and the sitemap.
func (c *HomeCache) Feed(ctx context.Context) ([]FeedEntry, error) {
	_, feed, err := c.ensureLoaded(ctx)
	return feed, err
}

func feedEntries(resp *prismic.Response) ([]FeedEntry, error) {
	out := make([]FeedEntry, 0, len(resp.Results))
	for _, doc := range resp.Results {
		s, err := posts.SummaryFromDocument(doc)
		if err != nil {
			return nil, err
		}
		updated, err := prismic.ParseTimestamp(doc.LastPublicationDate)
		if err != nil {
			return nil, err
		}
		out = append(out, FeedEntry{Summary: s, Updated: updated})
	}
	return out, nil
}
