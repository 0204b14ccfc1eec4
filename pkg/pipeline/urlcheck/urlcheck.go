// Package urlcheck implements the URL reachability step. A bounded pool
// of workers probes every reference URL in the catalog, paced per host,
// retrying transient failures with exponential backoff, and records one
// status per URL on the owning entries.
//
// Probe outcomes are data, not errors: an unreachable URL never fails
// the step. The step itself fails only on unrecoverable input, such as
// a reference URL that cannot be parsed at all.
package urlcheck

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentstation/utc"
	"golang.org/x/sync/errgroup"

	"github.com/openshelf/curator/internal/transport"
	"github.com/openshelf/curator/pkg/catalog"
	"github.com/openshelf/curator/pkg/errors"
	"github.com/openshelf/curator/pkg/logging"
	"github.com/openshelf/curator/pkg/pipeline"
)

// StepName is the registry key for this step.
const StepName = "url_check"

// Defaults.
const (
	defaultWorkers = 8
	defaultTimeout = 10 // seconds
	defaultRetries = 2
)

// Config holds the step's recognized options. Durations are plain
// seconds so pipeline files stay simple to write.
type Config struct {
	Workers       int      `yaml:"workers,omitempty"`        // Worker pool width
	Timeout       float64  `yaml:"timeout,omitempty"`        // Per-request timeout, seconds
	Retries       int      `yaml:"retries,omitempty"`        // Additional attempts after the first
	StepTimeout   float64  `yaml:"step_timeout,omitempty"`   // Whole-step budget, seconds, 0 = unbounded
	HostDelay     float64  `yaml:"host_delay,omitempty"`     // Minimum seconds between same-host requests
	Exclude       []string `yaml:"exclude,omitempty"`        // URL regexes to skip
	RetryStatuses []int    `yaml:"retry_statuses,omitempty"` // Extra transient status codes (besides 5xx)
}

// Step is the URL checker.
type Step struct {
	cfg      Config
	policy   Policy
	client   *transport.Client
	pacer    *hostPacer
	excludes []*regexp.Regexp

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

// New creates a URL checker step from a validated configuration.
func New(cfg Config) (*Step, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Retries == 0 {
		cfg.Retries = defaultRetries
	}

	excludes := make([]*regexp.Regexp, 0, len(cfg.Exclude))
	for _, pattern := range cfg.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.NewConfigError(StepName,
				fmt.Sprintf("invalid exclude pattern %q", pattern), err)
		}
		excludes = append(excludes, re)
	}

	policy := DefaultPolicy()
	if len(cfg.RetryStatuses) > 0 {
		policy = PolicyFromStatuses(cfg.RetryStatuses)
	}

	return &Step{
		cfg:    cfg,
		policy: policy,
		client: transport.NewClient(
			transport.WithTimeout(seconds(cfg.Timeout)),
			// Only fetch the first bytes when the server honors ranges;
			// others return the whole page.
			transport.WithHeader("Range", "bytes=0-200"),
		),
		pacer: newHostPacer(seconds(cfg.HostDelay)),
		now:   utc.Now,
	}, nil
}

// Name implements pipeline.Step.
func (s *Step) Name() string { return StepName }

// probeResult is one URL's final recorded outcome.
type probeResult struct {
	check  catalog.URLCheck
	failed bool
}

// Run implements pipeline.Step.
func (s *Step) Run(ctx context.Context, cat *catalog.Catalog) (*pipeline.Result, error) {
	log := logging.FromContext(ctx)

	urls, owners, skipped, err := s.collectURLs(cat)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.cfg.StepTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, seconds(s.cfg.StepTimeout))
		defer cancel()
	}

	log.Info().Int("urls", len(urls)).Int("workers", s.cfg.Workers).Msg("probing reference URLs")

	var mu sync.Mutex
	results := make(map[string]probeResult, len(urls))

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Workers)
	for _, u := range urls {
		if runCtx.Err() != nil {
			// Step budget spent: stop dispatching, let in-flight probes finish.
			break
		}
		u := u
		g.Go(func() error {
			result := s.probe(logging.WithURL(gctx, u), u)
			mu.Lock()
			results[u] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Apply results sequentially so no two writers ever touch the same
	// entry concurrently.
	failures := 0
	applied := make(map[string]bool)
	for u, result := range results {
		if result.failed {
			failures++
		}
		for _, id := range owners[u] {
			if sw, ok := cat.Softwares().Get(id); ok {
				sw.SetURLCheck(result.check)
				applied[id] = true
			}
		}
	}
	touched := len(applied)

	log.Info().Int("touched", touched).Int("failures", failures).Int("skipped", skipped).
		Msg("URL check complete")

	return &pipeline.Result{
		Touched:  touched,
		Failures: failures,
		Skipped:  skipped + (len(urls) - len(results)),
	}, nil
}

// collectURLs gathers the unique reference URLs and their owning
// entries. Unparseable URLs are unrecoverable input and fail the step.
func (s *Step) collectURLs(cat *catalog.Catalog) (urls []string, owners map[string][]string, skipped int, err error) {
	owners = make(map[string][]string)
	var malformed []string

	for _, sw := range cat.Softwares().List() {
		for _, u := range sw.URLs() {
			if s.excluded(u) {
				skipped++
				continue
			}
			if _, parseErr := url.Parse(u); parseErr != nil {
				malformed = append(malformed, fmt.Sprintf("%s: %q", sw.ID, u))
				continue
			}
			if _, seen := owners[u]; !seen {
				urls = append(urls, u)
			}
			owners[u] = append(owners[u], sw.ID)
		}
	}

	if len(malformed) > 0 {
		return nil, nil, 0, errors.NewStepError(StepName,
			fmt.Sprintf("unparseable reference URLs: %s", strings.Join(malformed, ", ")), nil)
	}

	sort.Strings(urls)
	return urls, owners, skipped, nil
}

// excluded reports whether a URL matches any configured exclude pattern.
func (s *Step) excluded(u string) bool {
	for _, re := range s.excludes {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}

// probe drives one URL through the retry state machine and maps the
// outcome to a recorded status.
func (s *Step) probe(ctx context.Context, u string) probeResult {
	parsed, _ := url.Parse(u) // Already validated in collectURLs

	redirected := false
	retrier := &transport.Retrier{
		MaxRetries: s.cfg.Retries,
		Classify:   s.policy.Classify,
		Sleep:      s.sleep,
	}

	outcome := retrier.Do(ctx, func(ctx context.Context) (int, error) {
		if err := s.pacer.Wait(ctx, parsed.Host); err != nil {
			return 0, errors.ErrCanceled
		}

		// In-flight requests run to their own per-request timeout even
		// if the step budget expires mid-probe; only retry waits are
		// cut short by the step context.
		resp, err := s.client.Get(context.WithoutCancel(ctx), u)
		if err != nil {
			return 0, err
		}
		defer func() { _ = resp.Body.Close() }()

		redirected = resp.Request.URL.String() != u
		return resp.StatusCode, nil
	})

	status := s.statusFor(outcome, redirected)
	logging.FromContext(ctx).Debug().Str("status", string(status)).
		Int("code", outcome.StatusCode).Int("attempts", outcome.Attempts).Msg("URL probed")

	return probeResult{
		check: catalog.URLCheck{
			URL:        u,
			Status:     status,
			StatusCode: outcome.StatusCode,
			Attempts:   outcome.Attempts,
			CheckedAt:  s.now(),
		},
		failed: !status.OK(),
	}
}

// statusFor maps a retry outcome to the recorded URL status.
func (s *Step) statusFor(outcome transport.Outcome, redirected bool) catalog.URLStatus {
	if outcome.State == transport.RetrySucceeded {
		if redirected {
			return catalog.URLStatusRedirected
		}
		return catalog.URLStatusReachable
	}

	// Probes cut short by the step budget are recorded as timeouts so a
	// re-run picks them up again.
	if outcome.Err != nil && errors.IsCanceled(outcome.Err) {
		return catalog.URLStatusTimeout
	}

	if outcome.Class == transport.ClassTerminal && outcome.Err == nil {
		if outcome.StatusCode >= 500 {
			return catalog.URLStatusServerError
		}
		return catalog.URLStatusClientError
	}

	// Transient failure with retries exhausted.
	return catalog.URLStatusUnreachable
}

// seconds converts a fractional-seconds config value to a duration.
func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
