// Package cache holds per-clinic query results in memory and drops them when
// appointment events arrive.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

const (
	DefaultTTL = 2 * time.Minute
	sep        = "|"
)

// QueryCache is a clinic-partitioned read-through cache.
type QueryCache struct {
	name    string
	store   *gocache.Cache
	metrics *metrics.Metrics
}

func NewQueryCache(name string, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{
		name:    name,
		store:   gocache.New(ttl, 2*ttl),
		metrics: m,
	}
}

// Key joins the parts of a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, sep)
}

func scoped(clinicID, key string) string {
	return clinicID + sep + key
}

func (c *QueryCache) Get(clinicID, key string) (interface{}, bool) {
	v, ok := c.store.Get(scoped(clinicID, key))
	c.metrics.ObserveCache(c.name, ok)
	return v, ok
}

func (c *QueryCache) Set(clinicID, key string, v interface{}) {
	c.store.SetDefault(scoped(clinicID, key), v)
}

// Invalidate drops every entry of the clinic and returns how many went.
func (c *QueryCache) Invalidate(clinicID string) int {
	prefix := clinicID + sep
	n := 0
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
			n++
		}
	}
	c.metrics.ObserveInvalidation()
	return n
}

func (c *QueryCache) Flush() {
	c.store.Flush()
}

func (c *QueryCache) Len() int {
	return c.store.ItemCount()
}

// Remember returns the cached value for key or stores what load produces.
// Errors are not cached. A nil cache always loads.
func Remember[T any](c *QueryCache, clinicID, key string, load func() (T, error)) (T, error) {
	if c != nil {
		if v, ok := c.Get(clinicID, key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	if c != nil {
		c.Set(clinicID, key, v)
	}
	return v, nil
}
