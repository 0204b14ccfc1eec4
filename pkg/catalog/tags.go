package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Tags is a concurrent safe map of tags.
type Tags struct {
	mu   sync.RWMutex
	tags map[string]*Tag
}

// NewTags creates a new Tags collection.
func NewTags() *Tags {
	return &Tags{tags: make(map[string]*Tag)}
}

// Get returns a tag by id and whether it exists.
func (t *Tags) Get(id string) (*Tag, bool) {
	t.mu.RLock()
	tag, ok := t.tags[id]
	t.mu.RUnlock()
	return tag, ok
}

// Set sets a tag by id. Returns an error if the tag is nil.
func (t *Tags) Set(id string, tag *Tag) error {
	if tag == nil {
		return fmt.Errorf("tag cannot be nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags[id] = tag
	return nil
}

// Add adds a tag, returning an error if it already exists.
func (t *Tags) Add(tag *Tag) error {
	if tag == nil {
		return fmt.Errorf("tag cannot be nil")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tags[tag.ID]; exists {
		return fmt.Errorf("tag with ID %s already exists", tag.ID)
	}
	t.tags[tag.ID] = tag
	return nil
}

// Delete removes a tag by id.
func (t *Tags) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tags[id]; !exists {
		return fmt.Errorf("tag with ID %s does not exist", id)
	}
	delete(t.tags, id)
	return nil
}

// List returns all tags sorted by id.
func (t *Tags) List() []*Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]*Tag, 0, len(t.tags))
	for _, tag := range t.tags {
		list = append(list, tag)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Len returns the number of tags.
func (t *Tags) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tags)
}
