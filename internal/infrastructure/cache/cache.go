// Package cache provides TTL caches for inventory lookups.
//
// InMemoryCache keeps entries in the process and suits single instances and
// tests. RedisCache shares entries between server replicas. Factory picks one
// of them from configuration.
package cache

import "errors"

// ErrClosed is returned by a cache after Close
var ErrClosed = errors.New("cache: closed")
