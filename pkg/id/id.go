// Package id issues time-sortable identifiers for paper tickets and
// decision cycles.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs. The zero value is not usable;
// call NewGenerator.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewGenerator(now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     now,
	}
}

// Next returns a ULID that sorts after every earlier one from g, even
// within the same millisecond.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now().UTC()), g.entropy).String()
}

var std = NewGenerator(nil)

// New returns a ULID from the process-wide generator.
func New() string {
	return std.Next()
}

// Time extracts the millisecond timestamp embedded in a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
