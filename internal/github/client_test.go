package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/curator/pkg/errors"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantName  string
		wantOK    bool
	}{
		{"canonical", "https://github.com/go-gitea/gitea", "go-gitea", "gitea", true},
		{"trailing slash", "https://github.com/go-gitea/gitea/", "go-gitea", "gitea", true},
		{"dots and dashes", "https://github.com/my.org/my-repo.js", "my.org", "my-repo.js", true},
		{"deep path is not a repo", "https://github.com/go-gitea/gitea/issues", "", "", false},
		{"plain website", "https://about.gitea.com/", "", "", false},
		{"http scheme rejected", "http://github.com/a/b", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, name, ok := ParseRepoURL(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"full_name":"acme/widget","stargazers_count":1234,"archived":true}`))
	})
	mux.HandleFunc("/repos/acme/widget/commits", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"commit":{"committer":{"date":"2026-07-15T09:30:00Z"}}}]`))
	})
	mux.HandleFunc("/repos/acme/widget/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tag_name":"v2.1.0","published_at":"2026-06-01T00:00:00Z"}`))
	})
	mux.HandleFunc("/repos/acme/unreleased/releases/latest", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientRepo(t *testing.T) {
	server := testServer(t)
	client := NewClient("", WithBaseURL(server.URL))

	repo, status, err := client.Repo(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "acme/widget", repo.FullName)
	assert.Equal(t, 1234, repo.Stars)
	assert.True(t, repo.Archived)
}

func TestClientLastCommitDate(t *testing.T) {
	server := testServer(t)
	client := NewClient("", WithBaseURL(server.URL))

	date, status, err := client.LastCommitDate(context.Background(), "acme", "widget")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, time.Date(2026, 7, 15, 9, 30, 0, 0, time.UTC), date)
}

func TestClientLatestRelease(t *testing.T) {
	server := testServer(t)
	client := NewClient("", WithBaseURL(server.URL))

	t.Run("released", func(t *testing.T) {
		release, _, err := client.LatestRelease(context.Background(), "acme", "widget")
		require.NoError(t, err)
		assert.Equal(t, "v2.1.0", release.TagName)
		require.NotNil(t, release.PublishedAt)
	})

	t.Run("no releases is a typed not-found", func(t *testing.T) {
		_, status, err := client.LatestRelease(context.Background(), "acme", "unreleased")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, status)
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestClientAuthorization(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	t.Run("token becomes a bearer header", func(t *testing.T) {
		client := NewClient("secret-token", WithBaseURL(server.URL))
		assert.True(t, client.Authenticated())
		_, _, err := client.Repo(context.Background(), "a", "b")
		require.NoError(t, err)
		assert.Equal(t, "Bearer secret-token", gotAuth)
	})

	t.Run("no token means no header", func(t *testing.T) {
		client := NewClient("", WithBaseURL(server.URL))
		assert.False(t, client.Authenticated())
		_, _, err := client.Repo(context.Background(), "a", "b")
		require.NoError(t, err)
		assert.Empty(t, gotAuth)
	})
}

func TestClientRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))
	_, status, err := client.Repo(context.Background(), "a", "b")
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.True(t, errors.IsRateLimited(err))
}

func TestClientCommitCount(t *testing.T) {
	since := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)

	t.Run("total read from the pagination trailer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("per_page"))
			assert.Equal(t, "2026-08-01T00:00:00Z", r.URL.Query().Get("since"))
			assert.Equal(t, "2026-09-01T00:00:00Z", r.URL.Query().Get("until"))
			w.Header().Set("Link", `<https://api.example.com/repositories/1/commits?per_page=1&page=120>; rel="last"`)
			_, _ = w.Write([]byte(`[{"commit":{"committer":{"date":"2026-08-29T10:00:00Z"}}}]`))
		}))
		defer server.Close()

		client := NewClient("", WithBaseURL(server.URL))
		count, status, err := client.CommitCount(context.Background(), "acme", "widget", since, until)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, 120, count)
	})

	t.Run("single page has no trailer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[{"commit":{"committer":{"date":"2026-08-29T10:00:00Z"}}}]`))
		}))
		defer server.Close()

		client := NewClient("", WithBaseURL(server.URL))
		count, _, err := client.CommitCount(context.Background(), "acme", "widget", since, until)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("quiet month", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		client := NewClient("", WithBaseURL(server.URL))
		count, _, err := client.CommitCount(context.Background(), "acme", "widget", since, until)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
