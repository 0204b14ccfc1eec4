package catalog

// Tag categorizes software entries by use case.
type Tag struct {
	ID          string `json:"id" yaml:"id"`     // Unique stable key (kebab-case slug)
	Name        string `json:"name" yaml:"name"` // Display name
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Platform is a language or deployment platform referenced by entries.
type Platform struct {
	ID          string `json:"id" yaml:"id"`     // Unique stable key (kebab-case slug)
	Name        string `json:"name" yaml:"name"` // Display name
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
