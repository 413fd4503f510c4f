// ABOUTME: LRU-cached mixer.Resolver wrapper
// ABOUTME: Avoids reconstructing a Kernel every Attach for a configuration seen before
package kernelcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wavefold/mixcore/pkg/audio"
	"github.com/wavefold/mixcore/pkg/mixer"
)

// key identifies one resolved kernel configuration. audio.Format and
// float32 are both comparable, so the composite key works as an LRU
// cache key without any hashing helper.
type key struct {
	format audio.Format
	gain   float32
}

// Cache wraps a mixer.Resolver with a bounded LRU keyed on (format,
// gain), so a device that repeatedly attaches and detaches the same
// configuration doesn't pay resolution cost every time.
type Cache struct {
	inner mixer.Resolver
	cache *lru.Cache[key, mixer.Kernel]
}

// New wraps inner with an LRU cache holding up to size resolved kernels.
func New(inner mixer.Resolver, size int) (*Cache, error) {
	c, err := lru.New[key, mixer.Kernel](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner, cache: c}, nil
}

// Resolve implements mixer.Resolver.
func (c *Cache) Resolve(format audio.Format, gain float32) (mixer.Kernel, error) {
	k := key{format: format, gain: gain}
	if kernel, ok := c.cache.Get(k); ok {
		return kernel, nil
	}

	kernel, err := c.inner.Resolve(format, gain)
	if err != nil {
		return nil, err
	}
	c.cache.Add(k, kernel)
	return kernel, nil
}
