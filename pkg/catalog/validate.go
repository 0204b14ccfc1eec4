package catalog

import (
	"fmt"
	"net/url"
)

// Violation describes one breach of a catalog invariant.
type Violation struct {
	Resource string `json:"resource" yaml:"resource"` // "software", "tag", "platform"
	ID       string `json:"id" yaml:"id"`             // Offending resource identifier
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Message  string `json:"message" yaml:"message"` // Human-readable rule description
}

// String implements fmt.Stringer.
func (v Violation) String() string {
	if v.Field != "" {
		return fmt.Sprintf("%s %s: %s: %s", v.Resource, v.ID, v.Field, v.Message)
	}
	return fmt.Sprintf("%s %s: %s", v.Resource, v.ID, v.Message)
}

// Validate checks every structural invariant of the catalog and returns
// all violations found. It never mutates the catalog and does not stop
// at the first breach.
//
// Structural invariants:
//   - every software entry has an ID and a display name
//   - every entry has at least one reference URL
//   - reference URLs are well-formed http(s) URLs
//   - every tag and platform reference resolves
//   - tags and platforms have IDs and display names
func (c *Catalog) Validate() []Violation {
	var violations []Violation

	for _, sw := range c.softwares.List() {
		violations = append(violations, c.validateSoftware(sw)...)
	}

	for _, tag := range c.tags.List() {
		if tag.Name == "" {
			violations = append(violations, Violation{
				Resource: "tag",
				ID:       tag.ID,
				Field:    "name",
				Message:  "display name is required",
			})
		}
	}

	for _, platform := range c.platforms.List() {
		if platform.Name == "" {
			violations = append(violations, Violation{
				Resource: "platform",
				ID:       platform.ID,
				Field:    "name",
				Message:  "display name is required",
			})
		}
	}

	return violations
}

func (c *Catalog) validateSoftware(sw *Software) []Violation {
	var violations []Violation

	report := func(field, message string) {
		violations = append(violations, Violation{
			Resource: "software",
			ID:       sw.ID,
			Field:    field,
			Message:  message,
		})
	}

	if sw.ID == "" {
		report("id", "identifier is required")
	}
	if sw.Name == "" {
		report("name", "display name is required")
	}

	if sw.WebsiteURL == "" && sw.SourceCodeURL == "" {
		report("website_url", "at least one of website_url or source_code_url is required")
	}

	for _, ref := range []struct {
		field string
		raw   string
	}{
		{"website_url", sw.WebsiteURL},
		{"source_code_url", sw.SourceCodeURL},
		{"demo_url", sw.DemoURL},
	} {
		field, raw := ref.field, ref.raw
		if raw == "" {
			continue
		}
		if !wellFormedURL(raw) {
			violations = append(violations, Violation{
				Resource: "software",
				ID:       sw.ID,
				Field:    field,
				Message:  fmt.Sprintf("malformed URL %q", raw),
			})
		}
	}

	for _, ref := range sw.Tags {
		if _, ok := c.tags.Get(ref); !ok {
			report("tags", fmt.Sprintf("reference to unknown tag %q", ref))
		}
	}
	for _, ref := range sw.Platforms {
		if _, ok := c.platforms.Get(ref); !ok {
			report("platforms", fmt.Sprintf("reference to unknown platform %q", ref))
		}
	}

	return violations
}

// wellFormedURL reports whether raw parses as an absolute http(s) URL.
func wellFormedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
