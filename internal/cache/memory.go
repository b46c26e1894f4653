package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultMemorySize = 4096

// Memory is an in-process LRU cache with expiry.
type Memory struct {
	lru *expirable.LRU[string, string]
}

// NewMemory creates a memory cache holding at most size entries for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &Memory{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

// Get returns the cached value.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

// Set stores value.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close purges the cache.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
