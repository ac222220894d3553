// Package crawl collects digest candidates from the configured sources.
// Sources are read one at a time; a source that cannot be fetched or parsed
// is skipped with a warning and never aborts the run.
package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/iguv/weekly"
)

// DefaultMaxCandidates caps the candidates kept across all sources of a run.
const DefaultMaxCandidates = 120

// DefaultRetryDelays returns the waits between listing fetch attempts:
// two immediate retries, no backoff.
func DefaultRetryDelays() []time.Duration {
	return weekly.FixedDelays(0, 3)
}

// Collector fetches sources and turns them into candidates.
type Collector struct {
	Fetcher weekly.Fetcher

	// Browser, if set, fetches sources flagged with Browser.
	Browser weekly.Fetcher

	// BrowserFallback refetches a static listing with Browser when it
	// yields no candidates, for sites that render their lists with
	// JavaScript.
	BrowserFallback bool

	Pages    weekly.CandidateExtractor
	Feeds    weekly.CandidateExtractor
	Snippets weekly.SnippetExtractor

	RateLimiter weekly.DomainLimiter
	Logger      *slog.Logger

	MaxCandidates int
	SnippetChars  int
	RetryDelays   []time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// SourceResult reports what one source contributed.
type SourceResult struct {
	Name  string
	URL   string
	Found int
	Kept  int
	Err   error
}

// Result holds the outcome of a collection.
type Result struct {
	// Candidates are deduplicated by (title, url), capped and sorted newest
	// first.
	Candidates []*weekly.Candidate
	Sources    []SourceResult
}

// Collect reads every source in order. It only fails when ctx is done.
func (c *Collector) Collect(ctx context.Context, sources []*weekly.Source) (*Result, error) {
	today := weekly.Day(c.now())
	maxCands := c.MaxCandidates
	if maxCands <= 0 {
		maxCands = DefaultMaxCandidates
	}

	seen := make(map[string]struct{})
	wantSnippet := make(map[*weekly.Candidate]bool)
	res := &Result{}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(res.Candidates) >= maxCands {
			c.logger().Info("candidate cap reached", "max", maxCands, "skipped_sources", len(sources)-i)
			break
		}

		cands, err := c.collectSource(ctx, src, today)
		sr := SourceResult{Name: src.Name, URL: src.URL, Found: len(cands), Err: err}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger().Warn("source skipped", "source", src.Name, "url", src.URL, "err", err)
		}

		for _, cand := range cands {
			if len(res.Candidates) >= maxCands {
				break
			}
			key := cand.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			res.Candidates = append(res.Candidates, cand)
			wantSnippet[cand] = src.Snippet
			sr.Kept++
		}
		res.Sources = append(res.Sources, sr)

		c.logger().Debug("source collected", "source", src.Name, "found", sr.Found, "kept", sr.Kept)
	}

	weekly.SortByDateDesc(res.Candidates)

	cache := make(map[string]string)
	for _, cand := range res.Candidates {
		if !wantSnippet[cand] || cand.Snippet != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, ok := cache[cand.URL]
		if !ok {
			s = c.snippet(ctx, cand.URL)
			cache[cand.URL] = s
		}
		cand.Snippet = s
	}

	return res, nil
}

// Upcoming reads an event listing and returns at most n future events,
// soonest first. A failed fetch yields no events and a warning.
func (c *Collector) Upcoming(ctx context.Context, src *weekly.Source, n int) ([]*weekly.Candidate, error) {
	events := *src
	events.Window = weekly.WindowUpcoming

	cands, err := c.collectSource(ctx, &events, weekly.Day(c.now()))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger().Warn("events skipped", "source", src.Name, "url", src.URL, "err", err)
		return []*weekly.Candidate{}, nil
	}

	weekly.SortByDateAsc(cands)
	if n > 0 && len(cands) > n {
		cands = cands[:n]
	}
	return cands, nil
}

// collectSource fetches and parses one source and applies its item cap.
func (c *Collector) collectSource(ctx context.Context, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
	extractor := c.Pages
	if src.Kind == weekly.SourceFeed {
		extractor = c.Feeds
	}
	if extractor == nil {
		return nil, weekly.Errorf(weekly.EINVALID, "no extractor for %s source %q", src.Kind, src.Name)
	}

	useBrowser := src.Browser && c.Browser != nil
	fetcher := c.Fetcher
	if useBrowser {
		fetcher = c.Browser
	}

	cands, err := c.fetchAndExtract(ctx, fetcher, extractor, src, today)
	if err != nil {
		return nil, err
	}

	if len(cands) == 0 && !useBrowser && c.BrowserFallback && c.Browser != nil && src.Kind != weekly.SourceFeed {
		c.logger().Debug("static listing empty, retrying with browser", "source", src.Name)
		cands, err = c.fetchAndExtract(ctx, c.Browser, extractor, src, today)
		if err != nil {
			return nil, err
		}
	}

	if src.Window == weekly.WindowUpcoming {
		weekly.SortByDateAsc(cands)
	} else {
		weekly.SortByDateDesc(cands)
	}
	if src.MaxItems > 0 && len(cands) > src.MaxItems {
		cands = cands[:src.MaxItems]
	}
	return cands, nil
}

func (c *Collector) fetchAndExtract(ctx context.Context, f weekly.Fetcher, extractor weekly.CandidateExtractor, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
	content, err := c.fetch(ctx, f, src.URL)
	if err != nil {
		return nil, err
	}
	return extractor.ExtractCandidates(content, src.URL, src, today)
}

// fetch retrieves a listing, retrying on failure.
func (c *Collector) fetch(ctx context.Context, f weekly.Fetcher, rawURL string) (string, error) {
	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	var body string
	err := weekly.Retry(ctx, delays, func(ctx context.Context) error {
		if err := c.wait(ctx, rawURL); err != nil {
			return weekly.Permanent(err)
		}
		var err error
		body, err = f.Fetch(ctx, rawURL)
		return err
	}, func(attempt int, err error, _ time.Duration) {
		c.logger().Debug("fetch retry", "url", rawURL, "attempt", attempt, "err", err)
	})
	return body, err
}

// snippet fetches a detail page once. Failures yield an empty snippet.
func (c *Collector) snippet(ctx context.Context, rawURL string) string {
	if c.Snippets == nil {
		return ""
	}
	if err := c.wait(ctx, rawURL); err != nil {
		return ""
	}
	body, err := c.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		c.logger().Debug("snippet fetch failed", "url", rawURL, "err", err)
		return ""
	}
	s, err := c.Snippets.ExtractSnippet(body, c.snippetChars())
	if err != nil {
		c.logger().Debug("snippet extraction failed", "url", rawURL, "err", err)
		return ""
	}
	return s
}

func (c *Collector) wait(ctx context.Context, rawURL string) error {
	if c.RateLimiter == nil {
		return nil
	}
	return c.RateLimiter.Wait(ctx, hostOf(rawURL))
}

func (c *Collector) snippetChars() int {
	if c.SnippetChars > 0 {
		return c.SnippetChars
	}
	return weekly.DefaultSnippetSize
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
