package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/ymiyake/userboard/internal/client"
)

// Status is the coarse loading state of the collection.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Collection holds the last fetched snapshot of the user list. There is
// no merging or patching: every refresh replaces the items wholesale,
// in server-defined order. Refreshes are sequence-stamped so that when
// two overlap, only the most recently started one may write the result;
// stale completions are discarded.
type Collection struct {
	mu     sync.Mutex
	status Status
	items  []client.User
	seq    uint64
}

// Status returns the current loading status.
func (c *Collection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Items returns a copy of the last loaded snapshot.
func (c *Collection) Items() []client.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]client.User, len(c.items))
	copy(items, c.items)
	return items
}

// Refresh refetches the whole collection. While the fetch is in flight
// the status is loading; a successful completion moves it to loaded. A
// completion that has been superseded by a newer Refresh is dropped
// without touching items, and its error (if any) is swallowed because
// the newer refresh owns the state.
func (c *Collection) Refresh(ctx context.Context, fetch func(context.Context) ([]client.User, error)) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	prev := c.status
	c.status = StatusLoading
	c.mu.Unlock()

	items, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return nil
	}
	if err != nil {
		c.status = prev
		return fmt.Errorf("refresh collection: %w", err)
	}
	c.items = items
	c.status = StatusLoaded
	return nil
}
