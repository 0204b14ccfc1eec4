package lint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/curator/pkg/catalog"
)

func cleanCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	require.NoError(t, c.SetTag(catalog.Tag{ID: "git", Name: "Git Hosting"}))
	require.NoError(t, c.SetSoftware(catalog.Software{
		ID:          "gitea",
		Name:        "Gitea",
		Description: "A painless self-hosted Git service written in Go.",
		WebsiteURL:  "https://about.gitea.com/",
		Licenses:    []string{"MIT"},
		Tags:        []string{"git"},
	}))
	return c
}

func violationFor(violations []catalog.Violation, id, field string) *catalog.Violation {
	for i, v := range violations {
		if v.ID == id && v.Field == field {
			return &violations[i]
		}
	}
	return nil
}

func TestLintCleanCatalog(t *testing.T) {
	result, err := New(Config{}).Run(context.Background(), cleanCatalog(t))
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.Equal(t, 0, result.Failures)
	assert.False(t, result.Fatal)
}

func TestLintDescriptionBounds(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		c := cleanCatalog(t)
		require.NoError(t, c.SetSoftware(catalog.Software{
			ID:          "terse",
			Name:        "Terse",
			Description: "Short.",
			WebsiteURL:  "https://example.com/",
			Licenses:    []string{"MIT"},
		}))

		result, err := New(Config{}).Run(context.Background(), c)
		require.NoError(t, err)
		require.NotNil(t, violationFor(result.Violations, "terse", "description"))
	})

	t.Run("missing entirely", func(t *testing.T) {
		c := cleanCatalog(t)
		require.NoError(t, c.SetSoftware(catalog.Software{
			ID:         "silent",
			Name:       "Silent",
			WebsiteURL: "https://example.com/",
			Licenses:   []string{"MIT"},
		}))

		result, err := New(Config{}).Run(context.Background(), c)
		require.NoError(t, err)
		v := violationFor(result.Violations, "silent", "description")
		require.NotNil(t, v)
		assert.Contains(t, v.Message, "required")
	})

	t.Run("custom bounds", func(t *testing.T) {
		c := cleanCatalog(t)
		result, err := New(Config{MinDescriptionLength: 100}).Run(context.Background(), c)
		require.NoError(t, err)
		assert.NotNil(t, violationFor(result.Violations, "gitea", "description"))
	})
}

func TestLintMissingLicense(t *testing.T) {
	c := cleanCatalog(t)
	require.NoError(t, c.SetSoftware(catalog.Software{
		ID:          "unlicensed",
		Name:        "Unlicensed",
		Description: "An entry that forgot to declare its license.",
		WebsiteURL:  "https://example.com/",
	}))

	result, err := New(Config{}).Run(context.Background(), c)
	require.NoError(t, err)
	v := violationFor(result.Violations, "unlicensed", "licenses")
	require.NotNil(t, v)
}

func TestLintDuplicateNames(t *testing.T) {
	c := cleanCatalog(t)
	require.NoError(t, c.SetSoftware(catalog.Software{
		ID:          "gitea-fork",
		Name:        "Gitea",
		Description: "A different entry wearing the same display name.",
		WebsiteURL:  "https://example.org/",
		Licenses:    []string{"MIT"},
	}))

	result, err := New(Config{}).Run(context.Background(), c)
	require.NoError(t, err)

	// Both entries sharing the name are flagged.
	assert.NotNil(t, violationFor(result.Violations, "gitea", "name"))
	assert.NotNil(t, violationFor(result.Violations, "gitea-fork", "name"))
}

func TestLintOrphanedRefs(t *testing.T) {
	c := cleanCatalog(t)
	require.NoError(t, c.SetTag(catalog.Tag{ID: "unused-tag", Name: "Unused"}))
	require.NoError(t, c.SetPlatform(catalog.Platform{ID: "unused-platform", Name: "Unused"}))

	result, err := New(Config{}).Run(context.Background(), c)
	require.NoError(t, err)

	var orphans []string
	for _, v := range result.Violations {
		orphans = append(orphans, v.ID)
	}
	assert.Contains(t, orphans, "unused-tag")
	assert.Contains(t, orphans, "unused-platform")
}

func TestLintIncludesStructuralViolations(t *testing.T) {
	c := cleanCatalog(t)
	require.NoError(t, c.SetSoftware(catalog.Software{
		ID:          "dangling",
		Name:        "Dangling",
		Description: "References a tag nobody has declared anywhere.",
		WebsiteURL:  "https://example.com/",
		Licenses:    []string{"MIT"},
		Tags:        []string{"no-such-tag"},
	}))

	result, err := New(Config{}).Run(context.Background(), c)
	require.NoError(t, err)
	assert.NotNil(t, violationFor(result.Violations, "dangling", "tags"))
}

func TestLintFatalEscalation(t *testing.T) {
	c := cleanCatalog(t)
	require.NoError(t, c.SetTag(catalog.Tag{ID: "unused", Name: "Unused"}))

	t.Run("violations without escalation", func(t *testing.T) {
		result, err := New(Config{}).Run(context.Background(), c)
		require.NoError(t, err)
		assert.False(t, result.Fatal)
		assert.Greater(t, result.Failures, 0)
	})

	t.Run("errors_are_fatal escalates", func(t *testing.T) {
		result, err := New(Config{ErrorsAreFatal: true}).Run(context.Background(), c)
		require.NoError(t, err)
		assert.True(t, result.Fatal)
	})

	t.Run("clean catalog never escalates", func(t *testing.T) {
		result, err := New(Config{ErrorsAreFatal: true}).Run(context.Background(), cleanCatalog(t))
		require.NoError(t, err)
		assert.False(t, result.Fatal)
	})
}
