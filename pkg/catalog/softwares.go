package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Softwares is a concurrent safe map of software entries.
type Softwares struct {
	mu        sync.RWMutex
	softwares map[string]*Software
}

// NewSoftwares creates a new Softwares collection.
func NewSoftwares() *Softwares {
	return &Softwares{
		softwares: make(map[string]*Software),
	}
}

// Get returns a software entry by id and whether it exists.
func (s *Softwares) Get(id string) (*Software, bool) {
	s.mu.RLock()
	sw, ok := s.softwares[id]
	s.mu.RUnlock()
	return sw, ok
}

// Set sets a software entry by id. Returns an error if the entry is nil.
func (s *Softwares) Set(id string, sw *Software) error {
	if sw == nil {
		return fmt.Errorf("software cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.softwares[id] = sw
	return nil
}

// Add adds a software entry, returning an error if it already exists.
func (s *Softwares) Add(sw *Software) error {
	if sw == nil {
		return fmt.Errorf("software cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.softwares[sw.ID]; exists {
		return fmt.Errorf("software with ID %s already exists", sw.ID)
	}
	s.softwares[sw.ID] = sw
	return nil
}

// Delete removes a software entry by id.
func (s *Softwares) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.softwares[id]; !exists {
		return fmt.Errorf("software with ID %s does not exist", id)
	}
	delete(s.softwares, id)
	return nil
}

// List returns all software entries sorted by id.
func (s *Softwares) List() []*Software {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Software, 0, len(s.softwares))
	for _, sw := range s.softwares {
		list = append(list, sw)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Len returns the number of software entries.
func (s *Softwares) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.softwares)
}

// Clear removes all software entries.
func (s *Softwares) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.softwares = make(map[string]*Software)
}
