package catalog

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/openshelf/curator/pkg/errors"
)

// Directory layout inside a catalog:
//
//	software/<id>.yaml  one file per software entry
//	tags.yaml           all tags
//	platforms.yaml      all platforms
const (
	softwareDir   = "software"
	tagsFile      = "tags.yaml"
	platformsFile = "platforms.yaml"
)

// LoadOption configures catalog loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	strict bool
}

// WithoutStrictValidation loads the catalog without failing on structural
// violations. The lint tooling uses this so it can report every breach
// instead of refusing to load.
func WithoutStrictValidation() LoadOption {
	return func(o *loadOptions) {
		o.strict = false
	}
}

// Load reads a catalog from a directory on disk.
//
// Loading is strict: unknown YAML fields, duplicate identifiers, and
// structural invariant violations all fail the load unless
// WithoutStrictValidation is given.
func Load(dir string, opts ...LoadOption) (*Catalog, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.WrapIO("stat", dir, err)
	}
	return LoadFS(os.DirFS(dir), opts...)
}

// LoadFS reads a catalog from any fs.FS implementation.
func LoadFS(fsys fs.FS, opts ...LoadOption) (*Catalog, error) {
	options := &loadOptions{strict: true}
	for _, opt := range opts {
		opt(options)
	}

	c := New()

	if err := c.loadTags(fsys); err != nil {
		return nil, err
	}
	if err := c.loadPlatforms(fsys); err != nil {
		return nil, err
	}
	if err := c.loadSoftwareFiles(fsys); err != nil {
		return nil, err
	}

	if options.strict {
		if violations := c.Validate(); len(violations) > 0 {
			return nil, structuralError(violations)
		}
	}

	return c, nil
}

// loadTags loads tags from tags.yaml.
func (c *Catalog) loadTags(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, tagsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // A catalog without tags is legal
		}
		return errors.WrapIO("read", tagsFile, err)
	}

	var tags []Tag
	if err := yaml.UnmarshalWithOptions(data, &tags, yaml.Strict()); err != nil {
		return errors.WrapParse("yaml", tagsFile, err)
	}

	for i := range tags {
		if err := c.tags.Add(&tags[i]); err != nil {
			return errors.WrapValidation("tags", err)
		}
	}
	return nil
}

// loadPlatforms loads platforms from platforms.yaml.
func (c *Catalog) loadPlatforms(fsys fs.FS) error {
	data, err := fs.ReadFile(fsys, platformsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // A catalog without platforms is legal
		}
		return errors.WrapIO("read", platformsFile, err)
	}

	var platforms []Platform
	if err := yaml.UnmarshalWithOptions(data, &platforms, yaml.Strict()); err != nil {
		return errors.WrapParse("yaml", platformsFile, err)
	}

	for i := range platforms {
		if err := c.platforms.Add(&platforms[i]); err != nil {
			return errors.WrapValidation("platforms", err)
		}
	}
	return nil
}

// loadSoftwareFiles walks the software directory and loads every entry.
func (c *Catalog) loadSoftwareFiles(fsys fs.FS) error {
	err := fs.WalkDir(fsys, softwareDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return errors.WrapIO("read", p, err)
		}
		return c.loadSoftwareFile(p, data)
	})

	if err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("walk", softwareDir, err)
	}
	return nil
}

// loadSoftwareFile parses one entry file. The file name must match the
// entry's identifier so that saves are stable.
func (c *Catalog) loadSoftwareFile(p string, data []byte) error {
	var sw Software
	if err := yaml.UnmarshalWithOptions(data, &sw, yaml.Strict()); err != nil {
		return errors.WrapParse("yaml", p, err)
	}

	stem := strings.TrimSuffix(path.Base(p), ".yaml")
	if sw.ID == "" {
		sw.ID = stem
	} else if sw.ID != stem {
		return errors.NewValidationError("id", sw.ID,
			fmt.Sprintf("identifier %q does not match file name %q", sw.ID, stem))
	}

	if err := c.softwares.Add(&sw); err != nil {
		return errors.WrapValidation("software", err)
	}
	return nil
}

// structuralError folds load-time violations into a single error.
func structuralError(violations []Violation) error {
	messages := make([]string, len(violations))
	for i, v := range violations {
		messages[i] = v.String()
	}
	return errors.NewValidationError("catalog", nil,
		fmt.Sprintf("%d structural violation(s): %s", len(violations), strings.Join(messages, "; ")))
}
