// Package catalog provides the data store for curated software lists.
// A catalog holds software entries plus the tags and platforms they
// reference, loaded from a directory of YAML files and persisted back
// deterministically so that re-runs produce minimal diffs.
//
// The catalog is designed to be mutated in place by pipeline steps:
// steps receive the store sequentially, and a step's internal workers
// only ever write disjoint entry-level fields, so the collections only
// need coarse mutex guards.
//
// Example usage:
//
//	cat, err := catalog.Load("./data")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, sw := range cat.Softwares().List() {
//	    fmt.Println(sw.ID)
//	}
package catalog

import (
	"github.com/openshelf/curator/pkg/errors"
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Reader = (*Catalog)(nil)
	_ Writer = (*Catalog)(nil)
)

// Reader provides read access to a catalog.
type Reader interface {
	Softwares() *Softwares
	Tags() *Tags
	Platforms() *Platforms
	Software(id string) (Software, error)
	Tag(id string) (Tag, error)
	Platform(id string) (Platform, error)
}

// Writer provides write access to a catalog.
type Writer interface {
	SetSoftware(sw Software) error
	SetTag(tag Tag) error
	SetPlatform(platform Platform) error
	DeleteSoftware(id string) error
	DeleteTag(id string) error
	DeletePlatform(id string) error
}

// Catalog is the in-memory store for a curated software list.
type Catalog struct {
	softwares *Softwares
	tags      *Tags
	platforms *Platforms
}

// New creates an empty in-memory catalog.
func New() *Catalog {
	return &Catalog{
		softwares: NewSoftwares(),
		tags:      NewTags(),
		platforms: NewPlatforms(),
	}
}

// Softwares returns the software collection.
func (c *Catalog) Softwares() *Softwares {
	return c.softwares
}

// Tags returns the tag collection.
func (c *Catalog) Tags() *Tags {
	return c.tags
}

// Platforms returns the platform collection.
func (c *Catalog) Platforms() *Platforms {
	return c.platforms
}

// Software returns a software entry by ID.
func (c *Catalog) Software(id string) (Software, error) {
	sw, ok := c.softwares.Get(id)
	if !ok {
		return Software{}, &errors.NotFoundError{
			Resource: "software",
			ID:       id,
		}
	}
	return *sw, nil
}

// Tag returns a tag by ID.
func (c *Catalog) Tag(id string) (Tag, error) {
	tag, ok := c.tags.Get(id)
	if !ok {
		return Tag{}, &errors.NotFoundError{
			Resource: "tag",
			ID:       id,
		}
	}
	return *tag, nil
}

// Platform returns a platform by ID.
func (c *Catalog) Platform(id string) (Platform, error) {
	platform, ok := c.platforms.Get(id)
	if !ok {
		return Platform{}, &errors.NotFoundError{
			Resource: "platform",
			ID:       id,
		}
	}
	return *platform, nil
}

// SetSoftware sets a software entry (upsert).
func (c *Catalog) SetSoftware(sw Software) error {
	swCopy := sw.Copy()
	return c.softwares.Set(swCopy.ID, &swCopy)
}

// SetTag sets a tag (upsert).
func (c *Catalog) SetTag(tag Tag) error {
	return c.tags.Set(tag.ID, &tag)
}

// SetPlatform sets a platform (upsert).
func (c *Catalog) SetPlatform(platform Platform) error {
	return c.platforms.Set(platform.ID, &platform)
}

// DeleteSoftware deletes a software entry.
func (c *Catalog) DeleteSoftware(id string) error {
	return c.softwares.Delete(id)
}

// DeleteTag deletes a tag.
func (c *Catalog) DeleteTag(id string) error {
	return c.tags.Delete(id)
}

// DeletePlatform deletes a platform.
func (c *Catalog) DeletePlatform(id string) error {
	return c.platforms.Delete(id)
}
