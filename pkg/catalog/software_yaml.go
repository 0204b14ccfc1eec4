package catalog

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// FormatYAML returns the canonical YAML serialization of a software
// entry. Field order is fixed by the struct layout, list fields are kept
// sorted by their owners, and the same logical content always produces
// byte-identical output so that re-saves yield minimal diffs.
func (s *Software) FormatYAML() string {
	commentMap := yaml.CommentMap{}

	commentMap["$"] = []*yaml.Comment{
		yaml.HeadComment(fmt.Sprintf(" %s - %s", s.ID, s.Name)),
	}

	if s.Repo != nil {
		commentMap["$.repo"] = []*yaml.Comment{
			yaml.HeadComment(" Repository metadata (machine-updated)"),
		}
	}
	if len(s.URLChecks) > 0 {
		commentMap["$.url_checks"] = []*yaml.Comment{
			yaml.HeadComment(" URL reachability (machine-updated)"),
		}
	}

	yamlData, err := yaml.MarshalWithOptions(s,
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseLiteralStyleIfMultiline(true),
		yaml.WithComment(commentMap),
	)
	if err != nil {
		// Fallback to basic marshal if comment marshaling fails
		yamlData, _ = yaml.Marshal(s)
	}

	return string(yamlData)
}

// FormatYAML returns the canonical YAML serialization of the tag
// collection, sorted by id.
func (t *Tags) FormatYAML() string {
	data, err := yaml.MarshalWithOptions(t.List(),
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseLiteralStyleIfMultiline(true),
	)
	if err != nil {
		return ""
	}
	return string(data)
}

// FormatYAML returns the canonical YAML serialization of the platform
// collection, sorted by id.
func (p *Platforms) FormatYAML() string {
	data, err := yaml.MarshalWithOptions(p.List(),
		yaml.Indent(2),
		yaml.IndentSequence(false),
		yaml.UseLiteralStyleIfMultiline(true),
	)
	if err != nil {
		return ""
	}
	return string(data)
}
