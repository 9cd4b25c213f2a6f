package itemshop

import (
	"errors"
	"sync"
)

// cleanups runs registered functions once, most recent first
type cleanups struct {
	mu      sync.Mutex
	entries []func() error
	done    bool
}

// add returns false once the cleanups have run
func (c *cleanups) add(fn func() error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return false
	}
	c.entries = append(c.entries, fn)
	return true
}

func (c *cleanups) run() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = nil
	c.done = true
	c.mu.Unlock()

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := entries[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
