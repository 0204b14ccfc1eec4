package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/openshelf/curator/pkg/errors"
	"github.com/openshelf/curator/pkg/logging"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// Save persists the catalog wholesale to a directory.
//
// Output is deterministic: one file per software entry named by its id,
// tags and platforms sorted by id in their own files. Entry files that
// no longer correspond to a catalog entry are removed so that a load of
// the saved directory reproduces the store exactly.
func (c *Catalog) Save(dir string) error {
	if dir == "" {
		return &errors.ConfigError{
			Component: "catalog",
			Message:   "no destination directory configured for saving",
		}
	}

	writeFile := func(relPath string, data []byte) error {
		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), dirPermissions); err != nil {
			return errors.WrapIO("create", filepath.Dir(fullPath), err)
		}
		return os.WriteFile(fullPath, data, filePermissions)
	}

	if c.tags.Len() > 0 {
		if err := writeFile(tagsFile, []byte(c.tags.FormatYAML())); err != nil {
			return errors.WrapIO("write", tagsFile, err)
		}
	}

	if c.platforms.Len() > 0 {
		if err := writeFile(platformsFile, []byte(c.platforms.FormatYAML())); err != nil {
			return errors.WrapIO("write", platformsFile, err)
		}
	}

	for _, sw := range c.softwares.List() {
		relPath := filepath.Join(softwareDir, sw.ID+".yaml")
		if err := writeFile(relPath, []byte(sw.FormatYAML())); err != nil {
			return errors.WrapIO("write", relPath, err)
		}
	}

	return c.removeStaleEntryFiles(dir)
}

// removeStaleEntryFiles deletes entry files whose id is no longer in the
// store, so deletions survive a save/load round trip.
func (c *Catalog) removeStaleEntryFiles(dir string) error {
	entries, err := os.ReadDir(filepath.Join(dir, softwareDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIO("read", filepath.Join(dir, softwareDir), err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		if _, ok := c.softwares.Get(id); ok {
			continue
		}

		stale := filepath.Join(dir, softwareDir, entry.Name())
		logging.Debug().Str("path", stale).Msg("removing stale entry file")
		if err := os.Remove(stale); err != nil {
			return errors.WrapIO("delete", stale, err)
		}
	}
	return nil
}
