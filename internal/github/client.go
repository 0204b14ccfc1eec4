// Package github provides a minimal client for the repository-metadata
// endpoints the enrichment pipeline needs: repository facts, the latest
// commit date, and the latest release.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/openshelf/curator/internal/transport"
	"github.com/openshelf/curator/pkg/errors"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.github.com"

// repoURLPattern matches canonical repository URLs such as
// https://github.com/owner/name, with an optional trailing slash.
var repoURLPattern = regexp.MustCompile(`^https://github\.com/([\w.\-]+)/([\w.\-]+)/?$`)

// ParseRepoURL extracts the owner and repository name from a canonical
// repository URL.
func ParseRepoURL(u string) (owner, name string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(u)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IsRepoURL reports whether u is a canonical repository URL.
func IsRepoURL(u string) bool {
	_, _, ok := ParseRepoURL(u)
	return ok
}

// Repo holds the repository facts the pipeline records.
type Repo struct {
	FullName string     `json:"full_name"`
	Stars    int        `json:"stargazers_count"`
	Archived bool       `json:"archived"`
	PushedAt *time.Time `json:"pushed_at"`
}

// Release is the latest published release of a repository.
type Release struct {
	TagName     string     `json:"tag_name"`
	PublishedAt *time.Time `json:"published_at"`
}

// commit mirrors the commits list response, commit date only.
type commit struct {
	Commit struct {
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// Client queries the repository metadata API. An optional token raises
// the server-side rate budget; its absence is not an error.
type Client struct {
	baseURL string
	token   string
	http    *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint, e.g. an
// enterprise installation or a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http = transport.NewClient(transport.WithTimeout(timeout))
	}
}

// NewClient creates a metadata API client.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    transport.NewClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether the client carries a credential.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// Repo fetches repository facts. The returned status code lets callers
// classify failures for retry purposes; it is 0 when the request never
// produced a response.
func (c *Client) Repo(ctx context.Context, owner, name string) (*Repo, int, error) {
	var repo Repo
	_, status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, name), &repo)
	if err != nil {
		return nil, status, err
	}
	return &repo, status, nil
}

// LastCommitDate fetches the date of the most recent commit on the
// default branch.
func (c *Client) LastCommitDate(ctx context.Context, owner, name string) (time.Time, int, error) {
	var commits []commit
	_, status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits?per_page=1", owner, name), &commits)
	if err != nil {
		return time.Time{}, status, err
	}
	if len(commits) == 0 {
		return time.Time{}, status, errors.NewNotFoundError("commit", owner+"/"+name)
	}
	return commits[0].Commit.Committer.Date, status, nil
}

// LatestRelease fetches the most recent published release. Repositories
// without releases return ErrNotFound.
func (c *Client) LatestRelease(ctx context.Context, owner, name string) (*Release, int, error) {
	var release Release
	_, status, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/releases/latest", owner, name), &release)
	if err != nil {
		return nil, status, err
	}
	return &release, status, nil
}

// linkLastPattern extracts the last-page number from the pagination
// Link header.
var linkLastPattern = regexp.MustCompile(`[?&]page=(\d+)>; rel="last"`)

// CommitCount counts commits on the default branch committed at or
// after since and before until. The commits list endpoint carries the
// total in its pagination Link header: with one commit per page, the
// last page number equals the commit count.
func (c *Client) CommitCount(ctx context.Context, owner, name string, since, until time.Time) (int, int, error) {
	path := fmt.Sprintf("/repos/%s/%s/commits?per_page=1&since=%s&until=%s",
		owner, name,
		url.QueryEscape(since.UTC().Format(time.RFC3339)),
		url.QueryEscape(until.UTC().Format(time.RFC3339)))

	var commits []commit
	header, status, err := c.get(ctx, path, &commits)
	if err != nil {
		return 0, status, err
	}
	if m := linkLastPattern.FindStringSubmatch(header.Get("Link")); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n, status, nil
		}
	}
	// A single page carries no Link header; the body is the whole list.
	return len(commits), status, nil
}

// get performs a GET request and decodes the JSON response into target.
// The response headers let callers read pagination trailers.
func (c *Client) get(ctx context.Context, path string, target any) (http.Header, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, errors.WrapResource("create", "request", "GET "+path, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Header, resp.StatusCode, errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return resp.Header, resp.StatusCode, &errors.APIError{
			Service:    "github",
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			URL:        path,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return resp.Header, resp.StatusCode, errors.WrapParse("json", path, err)
	}
	return resp.Header, resp.StatusCode, nil
}
