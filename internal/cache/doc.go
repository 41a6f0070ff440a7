// Package cache provides a small generic LRU cache.
//
// It memoizes values that are expensive to compute and cheap to keep, such
// as shaped text extents:
//
//	c := cache.New[string, int](128)
//	v := c.GetOrCreate("key", func() int { return expensive() })
package cache
