package domain

import (
	"strconv"
	"sync"
	"time"
)

// Lead id prefixes by channel.
const (
	PrefixLead   = "LEAD-"
	PrefixTest   = "TEST-"
	PrefixManual = "ML"
)

// IDGenerator issues timestamp tokens that never repeat within a process,
// even when two leads are created in the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator reading the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewIDGeneratorWithClock is used by tests to pin the clock.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

func (g *IDGenerator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}

// Next returns prefix followed by a unique millisecond token.
func (g *IDGenerator) Next(prefix string) string {
	return prefix + strconv.FormatInt(g.nextMillis(), 10)
}

// NextManual returns "ML" plus the last six digits of the token.
func (g *IDGenerator) NextManual() string {
	token := strconv.FormatInt(g.nextMillis(), 10)
	if len(token) > 6 {
		token = token[len(token)-6:]
	}
	return PrefixManual + token
}
