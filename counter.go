package main

import "sync"

// RequestCounter is the request count shared by every handler goroutine. The
// zero value is ready to use.
type RequestCounter struct {
	mu    sync.Mutex // guards count
	count uint64
}

// NewRequestCounter returns a counter starting at zero.
func NewRequestCounter() *RequestCounter {
	return &RequestCounter{}
}

// IncrementAndRead bumps the counter and returns the value it was bumped to.
// Concurrent callers each get a distinct value and together see 1..N.
func (c *RequestCounter) IncrementAndRead() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.count
}

// Value returns the current count without changing it.
func (c *RequestCounter) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
