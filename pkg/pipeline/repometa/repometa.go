// Package repometa implements the repository-metadata enrichment step.
// Entries whose reference URLs match a recognized hosting-service
// pattern are annotated with externally observed facts: star count,
// archival state, last commit date, latest release, and a rolling
// per-month commit count history.
//
// Workers share a single windowed request budget. An optional
// credential raises the quota; without one the step simply paces itself
// against the lower anonymous budget. Enrichment is idempotent and
// incremental: a truncated run keeps everything already fetched and is
// resumable by re-running the step.
package repometa

import (
	"context"
	goerrors "errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/openshelf/curator/internal/github"
	"github.com/openshelf/curator/internal/transport"
	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/errors"
	"github.com/openshelf/curator/pkg/logging"
	"github.com/openshelf/curator/pkg/pipeline"
)

// StepName is the registry key for this step.
const StepName = "repo_metadata"

// tokenEnv is the environment variable holding the API credential.
const tokenEnv = "GITHUB_TOKEN"

// Defaults.
const (
	defaultWorkers = 4
	defaultTimeout = 15 // seconds
	defaultRetries = 2

	// Hosted API quotas per hour, with and without a credential.
	budgetWithToken = 1000
	budgetAnonymous = 60
	budgetWindow    = time.Hour

	// Commit history months kept before pruning.
	defaultHistoryMonths = 12
)

// Config holds the step's recognized options.
type Config struct {
	Workers         int     `yaml:"workers,omitempty"`
	Timeout         float64 `yaml:"timeout,omitempty"`      // Per-request timeout, seconds
	Retries         int     `yaml:"retries,omitempty"`      // Additional attempts after the first
	StepTimeout     float64 `yaml:"step_timeout,omitempty"` // Whole-step budget, seconds, 0 = unbounded
	OnlyMissing     bool    `yaml:"only_missing,omitempty"` // Fetch only entries without metadata
	Token           string  `yaml:"token,omitempty"`        // Credential, falls back to GITHUB_TOKEN
	RequestsPerHour int     `yaml:"requests_per_hour,omitempty"`
	APIBaseURL      string  `yaml:"api_base_url,omitempty"` // Enterprise or test endpoint
	HistoryMonths   int     `yaml:"history_months,omitempty"`
}

// Step is the metadata fetcher.
type Step struct {
	cfg    Config
	client *github.Client
	budget *Budget

	// Injectable for tests.
	now   func() utc.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Factory builds the step from pipeline options.
func Factory(options pipeline.Options) (pipeline.Step, error) {
	var cfg Config
	if err := options.Decode(&cfg); err != nil {
		return nil, err
	}
	return New(cfg)
}

// New creates a metadata fetcher step from a validated configuration.
func New(cfg Config) (*Step, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.HistoryMonths <= 0 {
		cfg.HistoryMonths = defaultHistoryMonths
	}

	token := cfg.Token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}

	limit := cfg.RequestsPerHour
	if limit <= 0 {
		if token != "" {
			limit = budgetWithToken
		} else {
			limit = budgetAnonymous
		}
	}

	clientOpts := []github.Option{
		github.WithTimeout(time.Duration(cfg.Timeout * float64(time.Second))),
	}
	if cfg.APIBaseURL != "" {
		clientOpts = append(clientOpts, github.WithBaseURL(cfg.APIBaseURL))
	}

	return &Step{
		cfg:    cfg,
		client: github.NewClient(token, clientOpts...),
		budget: NewBudget(limit, budgetWindow),
		now:    utc.Now,
	}, nil
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return StepName }

// Run implements pipeline.Step.
func (s *Step) Run(ctx context.Context, cat *catalog.Catalog) (*pipeline.Result, error) {
	log := logging.FromContext(ctx)

	var candidates []*catalog.Software
	skipped := 0
	for _, sw := range cat.Softwares().List() {
		if repoURL(sw) == "" {
			continue
		}
		if s.cfg.OnlyMissing && sw.HasRepoMetadata() {
			skipped++
			continue
		}
		candidates = append(candidates, sw)
	}

	runCtx := ctx
	if s.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.StepTimeout*float64(time.Second)))
		defer cancel()
	}

	log.Info().Int("entries", len(candidates)).Int("budget", s.budget.Remaining()).
		Bool("authenticated", s.client.Authenticated()).Msg("fetching repository metadata")

	var mu sync.Mutex
	touched := 0
	failures := 0
	dispatched := 0

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Workers)
	for _, sw := range candidates {
		if runCtx.Err() != nil {
			// Budget for the whole step is spent: already-fetched
			// metadata stays applied, the rest is left for a re-run.
			break
		}
		sw := sw
		dispatched++
		g.Go(func() error {
			swCtx := logging.WithSoftware(gctx, sw.ID)
			if err := s.enrich(swCtx, sw); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				logging.FromContext(swCtx).Warn().Err(err).Msg("metadata fetch failed")
				return nil
			}
			mu.Lock()
			touched++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	skipped += len(candidates) - dispatched

	log.Info().Int("touched", touched).Int("failures", failures).Int("skipped", skipped).
		Msg("repository metadata complete")

	return &pipeline.Result{
		Touched:  touched,
		Failures: failures,
		Skipped:  skipped,
	}, nil
}

// enrich fetches metadata for one entry and writes it back. Workers
// write only their own entry's metadata field, so no store locking is
// needed.
func (s *Step) enrich(ctx context.Context, sw *catalog.Software) error {
	owner, name, _ := github.ParseRepoURL(repoURL(sw))

	repo, err := fetch(ctx, s, func(ctx context.Context) (*github.Repo, int, error) {
		return s.client.Repo(ctx, owner, name)
	})
	if err != nil {
		return err
	}

	lastCommit, err := fetch(ctx, s, func(ctx context.Context) (time.Time, int, error) {
		return s.client.LastCommitDate(ctx, owner, name)
	})
	if err != nil {
		return err
	}

	// Repositories without releases are common; a missing release is
	// not a failure.
	release, err := fetch(ctx, s, func(ctx context.Context) (*github.Release, int, error) {
		return s.client.LatestRelease(ctx, owner, name)
	})
	if err != nil && !errors.IsNotFound(err) {
		return err
	}

	now := s.now()

	// Commit activity for the month in progress; past months keep the
	// counts recorded when they were current.
	start := monthStart(now.Time)
	count, err := fetch(ctx, s, func(ctx context.Context) (int, int, error) {
		return s.client.CommitCount(ctx, owner, name, start, start.AddDate(0, 1, 0))
	})
	if err != nil {
		return err
	}
	commitTime := utc.Time{Time: lastCommit.UTC()}
	meta := &catalog.RepoMetadata{
		Stars:      repo.Stars,
		Archived:   repo.Archived,
		LastCommit: &commitTime,
		FetchedAt:  now,
	}
	if release != nil {
		rel := &catalog.Release{Tag: release.TagName}
		if release.PublishedAt != nil {
			published := utc.Time{Time: release.PublishedAt.UTC()}
			rel.PublishedAt = &published
		}
		meta.CurrentRelease = rel
	}
	var history []catalog.MonthCount
	if sw.Repo != nil {
		history = sw.Repo.CommitHistory
	}
	history = upsertMonth(history, now.Time.Format("2006-01"), count)
	meta.CommitHistory = pruneHistory(history, s.cfg.HistoryMonths, now.Time)

	sw.Repo = meta
	return nil
}

// fetch drives one API call through the budget and the retry state
// machine.
func fetch[T any](ctx context.Context, s *Step, call func(ctx context.Context) (T, int, error)) (T, error) {
	var result T

	retrier := &transport.Retrier{
		MaxRetries: s.cfg.Retries,
		Classify:   classify,
		Sleep:      s.sleep,
	}

	outcome := retrier.Do(ctx, func(ctx context.Context) (int, error) {
		// The budget gate suspends every worker once the quota for the
		// current window is spent.
		if err := s.budget.Acquire(ctx); err != nil {
			return 0, err
		}
		res, status, err := call(ctx)
		if err == nil {
			result = res
		}
		return status, err
	})

	if outcome.State != transport.RetrySucceeded {
		return result, outcome.Err
	}
	return result, nil
}

// classify is the transient/terminal policy for metadata API calls:
// rate limiting, server errors, and network failures retry; a
// definitive not-found is terminal and recorded rather than retried.
func classify(statusCode int, err error) transport.Class {
	if err == nil {
		return transport.ClassSuccess
	}
	if goerrors.Is(err, context.Canceled) || errors.IsCanceled(err) ||
		goerrors.Is(err, errors.ErrBudgetExhausted) {
		return transport.ClassTerminal
	}
	if errors.IsRateLimited(err) || errors.IsUnavailable(err) {
		return transport.ClassTransient
	}
	if errors.IsNotFound(err) {
		return transport.ClassTerminal
	}
	if statusCode == 0 {
		return transport.ClassTransient // Network-level failure
	}
	return transport.ClassTerminal
}

// repoURL returns the entry's recognized repository URL, preferring the
// source code URL over the website URL.
func repoURL(sw *catalog.Software) string {
	if github.IsRepoURL(sw.SourceCodeURL) {
		return sw.SourceCodeURL
	}
	if github.IsRepoURL(sw.WebsiteURL) {
		return sw.WebsiteURL
	}
	return ""
}

// monthStart returns midnight UTC on the first day of t's month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// upsertMonth records the commit count for one month, replacing any
// earlier count for the same month.
func upsertMonth(history []catalog.MonthCount, month string, count int) []catalog.MonthCount {
	out := make([]catalog.MonthCount, 0, len(history)+1)
	replaced := false
	for _, mc := range history {
		if mc.Month == month {
			out = append(out, catalog.MonthCount{Month: month, Count: count})
			replaced = true
			continue
		}
		out = append(out, mc)
	}
	if !replaced {
		out = append(out, catalog.MonthCount{Month: month, Count: count})
	}
	return out
}

// pruneHistory drops per-month commit counts older than the retention
// window and returns the remainder sorted by month.
func pruneHistory(history []catalog.MonthCount, months int, now time.Time) []catalog.MonthCount {
	cutoff := now.AddDate(0, -months, 0).Format("2006-01")

	var kept []catalog.MonthCount
	for _, mc := range history {
		if mc.Month >= cutoff {
			kept = append(kept, mc)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Month < kept[j].Month })
	return kept
}
