// internal/lookup/cached.go
//
// TTL cache in front of any Service.
//
// Context
// -------
// Outbound cleaning runs for every link on a rendered page, so the same
// course or user is often looked up dozens of times per request.  Cached
// keeps recent answers, including ErrNotFound, for at most ttl so that an
// administrator's mapping edit is visible within one ttl window.
//
// Workflow
// --------
//  1. Key the call as “kind:arg”.
//  2. Return a live cache entry when present.
//  3. Otherwise collapse concurrent misses for the same key through
//     singleflight, call the backend, and store the outcome.
//
// Notes
// -----
// • Backend errors other than ErrNotFound are never cached.
// • Oxford commas, two spaces after periods.

package lookup

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/cleanurl/internal/cache"
	"github.com/yanizio/cleanurl/internal/metrics"
)

// DefaultCacheSize bounds entries when the caller passes size <= 0.
const DefaultCacheSize = 4096

type outcome struct {
	val      any
	notFound bool
}

// Cached decorates a Service with a bounded TTL cache.
type Cached struct {
	next Service
	lru  *cache.LRU[string, outcome]
	sfg  singleflight.Group
}

var _ Service = (*Cached)(nil)

// NewCached wraps next.  A ttl <= 0 disables caching and returns next.
func NewCached(next Service, ttl time.Duration, size int) Service {
	if ttl <= 0 {
		return next
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cached{next: next, lru: cache.New[string, outcome](size, ttl)}
}

// Purge empties the cache, for callers that know the store just changed.
func (c *Cached) Purge() { c.lru.Purge() }

func (c *Cached) load(ctx context.Context, key string, fetch func() (any, error)) (any, error) {
	if o, ok := c.lru.Get(key); ok {
		metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
		if o.notFound {
			return nil, ErrNotFound
		}
		return o.val, nil
	}
	metrics.LookupCacheTotal.WithLabelValues("miss").Inc()

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		v, err := fetch()
		switch {
		case err == nil:
			c.lru.Add(key, outcome{val: v})
		case errors.Is(err, ErrNotFound):
			c.lru.Add(key, outcome{notFound: true})
		}
		return v, err
	})
	return v, err
}

// CourseByShortName implements Service.
func (c *Cached) CourseByShortName(ctx context.Context, shortname string) (*Course, error) {
	v, err := c.load(ctx, "course.shortname:"+shortname, func() (any, error) {
		return c.next.CourseByShortName(ctx, shortname)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Course), nil
}

// CourseByID implements Service.
func (c *Cached) CourseByID(ctx context.Context, id int64) (*Course, error) {
	v, err := c.load(ctx, "course.id:"+strconv.FormatInt(id, 10), func() (any, error) {
		return c.next.CourseByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Course), nil
}

// CategoryByID implements Service.
func (c *Cached) CategoryByID(ctx context.Context, id int64) (*Category, error) {
	v, err := c.load(ctx, "category.id:"+strconv.FormatInt(id, 10), func() (any, error) {
		return c.next.CategoryByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Category), nil
}

// UserByID implements Service.
func (c *Cached) UserByID(ctx context.Context, id int64) (*User, error) {
	v, err := c.load(ctx, "user.id:"+strconv.FormatInt(id, 10), func() (any, error) {
		return c.next.UserByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// UserByUsername implements Service.
func (c *Cached) UserByUsername(ctx context.Context, username string) (*User, error) {
	v, err := c.load(ctx, "user.username:"+username, func() (any, error) {
		return c.next.UserByUsername(ctx, username)
	})
	if err != nil {
		return nil, err
	}
	return v.(*User), nil
}

// MappingByCustomURL implements Service.
func (c *Cached) MappingByCustomURL(ctx context.Context, customURL string) (*Mapping, error) {
	v, err := c.load(ctx, "mapping.custom:"+customURL, func() (any, error) {
		return c.next.MappingByCustomURL(ctx, customURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Mapping), nil
}

// MappingByDefaultURL implements Service.
func (c *Cached) MappingByDefaultURL(ctx context.Context, defaultURL string) (*Mapping, error) {
	v, err := c.load(ctx, "mapping.default:"+defaultURL, func() (any, error) {
		return c.next.MappingByDefaultURL(ctx, defaultURL)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Mapping), nil
}
