// Package answercache memoizes the last computed suggestion pair for a
// session, so requesting the example answer right after the talking points
// for the same question issues no second backend call.
package answercache

import (
	"strings"
	"sync"
)

// Answer is the suggestion pair computed for one normalized question
type Answer struct {
	Question      string
	TalkingPoints string
	ExampleAnswer string
}

// Cache holds at most one answer per session (most-recent-question-wins).
// A single slot bounds memory and matches the single-active-question flow;
// this is deliberately not a general-purpose map.
type Cache struct {
	mu   sync.Mutex
	slot *Answer
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{}
}

// Normalize reduces a question to its cache key: trimmed, case preserved
func Normalize(question string) string {
	return strings.TrimSpace(question)
}

// Lookup returns the cached answer for question, or nil on miss.
// Matching is exact and case-sensitive against the stored slot.
func (c *Cache) Lookup(question string) *Answer {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Normalize(question)
	if key == "" || c.slot == nil || c.slot.Question != key {
		return nil
	}
	ans := *c.slot
	return &ans
}

// Put replaces the slot wholesale with the answer pair for question
func (c *Cache) Put(question, talkingPoints, exampleAnswer string) {
	key := Normalize(question)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = &Answer{
		Question:      key,
		TalkingPoints: talkingPoints,
		ExampleAnswer: exampleAnswer,
	}
}

// Clear empties the slot
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = nil
}
