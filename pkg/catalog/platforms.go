package catalog

import (
	"fmt"
	"sort"
	"sync"
)

// Platforms is a concurrent safe map of platforms.
type Platforms struct {
	mu        sync.RWMutex
	platforms map[string]*Platform
}

// NewPlatforms creates a new Platforms collection.
func NewPlatforms() *Platforms {
	return &Platforms{platforms: make(map[string]*Platform)}
}

// Get returns a platform by id and whether it exists.
func (p *Platforms) Get(id string) (*Platform, bool) {
	p.mu.RLock()
	platform, ok := p.platforms[id]
	p.mu.RUnlock()
	return platform, ok
}

// Set sets a platform by id. Returns an error if the platform is nil.
func (p *Platforms) Set(id string, platform *Platform) error {
	if platform == nil {
		return fmt.Errorf("platform cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.platforms[id] = platform
	return nil
}

// Add adds a platform, returning an error if it already exists.
func (p *Platforms) Add(platform *Platform) error {
	if platform == nil {
		return fmt.Errorf("platform cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.platforms[platform.ID]; exists {
		return fmt.Errorf("platform with ID %s already exists", platform.ID)
	}
	p.platforms[platform.ID] = platform
	return nil
}

// Delete removes a platform by id.
func (p *Platforms) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.platforms[id]; !exists {
		return fmt.Errorf("platform with ID %s does not exist", id)
	}
	delete(p.platforms, id)
	return nil
}

// List returns all platforms sorted by id.
func (p *Platforms) List() []*Platform {
	p.mu.RLock()
	defer p.mu.RUnlock()

	list := make([]*Platform, 0, len(p.platforms))
	for _, platform := range p.platforms {
		list = append(list, platform)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Len returns the number of platforms.
func (p *Platforms) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.platforms)
}
