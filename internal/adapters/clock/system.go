package clock

import (
	"sync"
	"time"

	"github.com/trebuchet-org/pledge/internal/usecase"
)

// SystemClock reads wall time at second resolution and never goes backwards
type SystemClock struct {
	now  func() time.Time
	mu   sync.Mutex
	last time.Time
}

// NewSystemClock creates a clock backed by time.Now
func NewSystemClock() *SystemClock {
	return &SystemClock{now: time.Now}
}

// Now returns the current UTC time truncated to the second
func (c *SystemClock) Now() time.Time {
	t := c.now().UTC().Truncate(time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()
	if t.Before(c.last) {
		return c.last
	}
	c.last = t
	return t
}

var _ usecase.Clock = (*SystemClock)(nil)
