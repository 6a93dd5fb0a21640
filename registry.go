// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import "sync"

// Registry limits.
const (
	// RegistryCapacity is the fixed number of registry slots.
	RegistryCapacity = 8
	// MaxTagLength is the maximum tag length in bytes.
	MaxTagLength = 15
)

// registrySlot holds one published reader. The reference is non-owning.
type registrySlot struct {
	reader *Reader
	tag    string
}

// Registry publishes open readers under short tags so unrelated code can fetch them later.
//
// A registry never owns readers: closing a reader clears its slots, and a slot
// is emptied only that way. The zero value is ready to use.
type Registry struct {
	slots [RegistryCapacity]registrySlot
	mu    sync.Mutex
}

// defaultRegistry backs the package-level Register and Fetch.
var defaultRegistry = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns the process-wide registry used by Register and Fetch.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register publishes r in the default registry under tag.
func Register(r *Reader, tag string) bool {
	return defaultRegistry.Register(r, tag)
}

// Fetch returns the reader published in the default registry under tag, or nil.
func Fetch(tag string) *Reader {
	return defaultRegistry.Fetch(tag)
}

// Register publishes r under tag and reports success.
// It fails without changing state when r is nil or closed, tag is longer than
// MaxTagLength, tag is already taken, or every slot is occupied.
func (g *Registry) Register(r *Reader, tag string) bool {
	if g == nil || r == nil || len(tag) > MaxTagLength {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	free := -1
	for i := len(g.slots) - 1; i >= 0; i-- {
		slot := &g.slots[i]
		if slot.reader == nil {
			free = i
			continue
		}

		if slot.tag == tag {
			return false
		}
	}

	if free < 0 {
		return false
	}

	if !r.attach(g) {
		return false
	}

	g.slots[free] = registrySlot{reader: r, tag: tag}
	return true
}

// Fetch returns the reader published under tag, or nil.
func (g *Registry) Fetch(tag string) *Reader {
	if g == nil || len(tag) > MaxTagLength {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.slots {
		if g.slots[i].reader != nil && g.slots[i].tag == tag {
			return g.slots[i].reader
		}
	}

	return nil
}

// Tags returns occupied tags in slot order.
func (g *Registry) Tags() []string {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	tags := make([]string, 0, len(g.slots))
	for i := range g.slots {
		if g.slots[i].reader != nil {
			tags = append(tags, g.slots[i].tag)
		}
	}

	return tags
}

// evict clears every slot referencing r.
func (g *Registry) evict(r *Reader) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.slots {
		if g.slots[i].reader == r {
			g.slots[i] = registrySlot{}
		}
	}
}
