package catalog

import (
	"slices"
	"sort"

	"github.com/agentstation/utc"
)

// Software represents one cataloged software entry.
//
// Identity and descriptive fields are curated by hand; the Repo and
// URLChecks fields are owned by the enrichment steps and are always
// overwritable without affecting identity.
type Software struct {
	// Core identity
	ID          string `json:"id" yaml:"id"`                                       // Unique stable key (kebab-case slug)
	Name        string `json:"name" yaml:"name"`                                   // Display name
	Description string `json:"description,omitempty" yaml:"description,omitempty"` // Free-text description

	// Reference URLs - at least one of website or source code is required
	WebsiteURL    string `json:"website_url,omitempty" yaml:"website_url,omitempty"`
	SourceCodeURL string `json:"source_code_url,omitempty" yaml:"source_code_url,omitempty"`
	DemoURL       string `json:"demo_url,omitempty" yaml:"demo_url,omitempty"`

	// Curation attributes
	Licenses          []string `json:"licenses,omitempty" yaml:"licenses,omitempty"`
	Languages         []string `json:"languages,omitempty" yaml:"languages,omitempty"`
	Tags              []string `json:"tags,omitempty" yaml:"tags,omitempty"`           // References into the tag collection
	Platforms         []string `json:"platforms,omitempty" yaml:"platforms,omitempty"` // References into the platform collection
	DependsThirdParty bool     `json:"depends_3rdparty,omitempty" yaml:"depends_3rdparty,omitempty"`

	// Enrichment-owned fields
	Repo      *RepoMetadata `json:"repo,omitempty" yaml:"repo,omitempty"`             // Last-known repository metadata
	URLChecks []URLCheck    `json:"url_checks,omitempty" yaml:"url_checks,omitempty"` // One status per reference URL, sorted by URL
}

// RepoMetadata holds externally observed repository facts.
type RepoMetadata struct {
	Stars          int          `json:"stars" yaml:"stars"`
	Archived       bool         `json:"archived" yaml:"archived"`
	LastCommit     *utc.Time    `json:"last_commit,omitempty" yaml:"last_commit,omitempty"`
	CurrentRelease *Release     `json:"current_release,omitempty" yaml:"current_release,omitempty"`
	CommitHistory  []MonthCount `json:"commit_history,omitempty" yaml:"commit_history,omitempty"` // Per-month commit counts, most recent 12 months
	FetchedAt      utc.Time     `json:"fetched_at" yaml:"fetched_at"`
}

// Release identifies the latest published release of a repository.
type Release struct {
	Tag         string    `json:"tag" yaml:"tag"`
	PublishedAt *utc.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

// MonthCount is the number of commits observed in one month ("2026-08").
type MonthCount struct {
	Month string `json:"month" yaml:"month"`
	Count int    `json:"count" yaml:"count"`
}

// URLStatus classifies the outcome of a reachability probe.
type URLStatus string

// URL statuses recorded by the URL checker.
const (
	URLStatusReachable   URLStatus = "reachable"
	URLStatusRedirected  URLStatus = "redirected"
	URLStatusClientError URLStatus = "client-error"
	URLStatusServerError URLStatus = "server-error"
	URLStatusUnreachable URLStatus = "unreachable"
	URLStatusTimeout     URLStatus = "timeout"
)

// String returns the string representation of a URLStatus.
func (s URLStatus) String() string {
	return string(s)
}

// OK reports whether the status means the URL answered successfully.
func (s URLStatus) OK() bool {
	return s == URLStatusReachable || s == URLStatusRedirected
}

// URLCheck records the outcome of probing one reference URL.
type URLCheck struct {
	URL        string    `json:"url" yaml:"url"`
	Status     URLStatus `json:"status" yaml:"status"`
	StatusCode int       `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Attempts   int       `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	CheckedAt  utc.Time  `json:"checked_at" yaml:"checked_at"`
}

// URLs returns the entry's reference URLs, deduplicated, in declaration
// order (website, source code, demo).
func (s *Software) URLs() []string {
	urls := make([]string, 0, 3)
	for _, u := range []string{s.WebsiteURL, s.SourceCodeURL, s.DemoURL} {
		if u != "" && !slices.Contains(urls, u) {
			urls = append(urls, u)
		}
	}
	return urls
}

// SetURLCheck records a check result, replacing any previous result for
// the same URL and keeping the slice sorted by URL for deterministic
// serialization.
func (s *Software) SetURLCheck(check URLCheck) {
	for i, existing := range s.URLChecks {
		if existing.URL == check.URL {
			s.URLChecks[i] = check
			return
		}
	}
	s.URLChecks = append(s.URLChecks, check)
	sort.Slice(s.URLChecks, func(i, j int) bool {
		return s.URLChecks[i].URL < s.URLChecks[j].URL
	})
}

// URLCheckFor returns the recorded check for a URL, if any.
func (s *Software) URLCheckFor(url string) (URLCheck, bool) {
	for _, check := range s.URLChecks {
		if check.URL == url {
			return check, true
		}
	}
	return URLCheck{}, false
}

// HasRepoMetadata reports whether repository metadata has been fetched.
func (s *Software) HasRepoMetadata() bool {
	return s.Repo != nil
}

// Copy returns a deep copy of the software entry.
func (s Software) Copy() Software {
	out := s
	out.Licenses = slices.Clone(s.Licenses)
	out.Languages = slices.Clone(s.Languages)
	out.Tags = slices.Clone(s.Tags)
	out.Platforms = slices.Clone(s.Platforms)
	out.URLChecks = slices.Clone(s.URLChecks)
	if s.Repo != nil {
		repo := *s.Repo
		repo.CommitHistory = slices.Clone(s.Repo.CommitHistory)
		if s.Repo.CurrentRelease != nil {
			release := *s.Repo.CurrentRelease
			repo.CurrentRelease = &release
		}
		out.Repo = &repo
	}
	return out
}
