// Package regexcache caches compiled regular expressions so that patterns
// assembled at run time (method token sets, keyword patterns) are compiled
// once per process no matter how many runs share them.
package regexcache

import (
	"regexp"
	"sync"
)

// Cache is a concurrency-safe pattern cache. The zero value is ready to use.
type Cache struct {
	m sync.Map
}

// Get returns the compiled form of pattern, compiling it on first use.
func (c *Cache) Get(pattern string) (*regexp.Regexp, error) {
	if cached, ok := c.m.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := c.m.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every cached pattern.
func (c *Cache) Reset() {
	c.m.Range(func(key, _ any) bool {
		c.m.Delete(key)
		return true
	})
}

var shared Cache

// Get returns pattern compiled from the process-wide cache.
func Get(pattern string) (*regexp.Regexp, error) {
	return shared.Get(pattern)
}

// MustGet is Get for patterns known to be valid. It panics otherwise.
func MustGet(pattern string) *regexp.Regexp {
	re, err := shared.Get(pattern)
	if err != nil {
		panic(err)
	}
	return re
}

// Size returns the number of patterns in the process-wide cache.
func Size() int { return shared.Len() }

// Clear empties the process-wide cache. Used by tests.
func Clear() { shared.Reset() }
