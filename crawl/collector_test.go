package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/crawl"
	"github.com/iguv/weekly/goquery"
	"github.com/iguv/weekly/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.March, 18, 10, 0, 0, 0, time.UTC)

// pages returns a fetcher serving the given URL → HTML map and counting calls.
func pages(m map[string]string, calls map[string]int) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			if calls != nil {
				calls[url]++
			}
			html, ok := m[url]
			if !ok {
				return "", fmt.Errorf("HTTP 404 for %s", url)
			}
			return html, nil
		},
		CloseFn: func() error { return nil },
	}
}

func newCollector(f weekly.Fetcher) *crawl.Collector {
	return &crawl.Collector{
		Fetcher:  f,
		Pages:    goquery.NewCandidateExtractor(),
		Snippets: goquery.NewSnippetExtractor(),
		Now:      func() time.Time { return now },
	}
}

func TestCollector_Collect(t *testing.T) {
	t.Parallel()

	t.Run("failed source degrades to empty result", func(t *testing.T) {
		t.Parallel()

		calls := map[string]int{}
		f := pages(map[string]string{
			"https://b.ch/news/": `<a href="/news/1">15.03.2025 – Mitteilung</a>`,
		}, calls)
		c := newCollector(f)

		res, err := c.Collect(context.Background(), []*weekly.Source{
			{Name: "a", URL: "https://a.ch/news/"},
			{Name: "b", URL: "https://b.ch/news/"},
		})

		require.NoError(t, err)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "https://b.ch/news/1", res.Candidates[0].URL)
		require.Len(t, res.Sources, 2)
		assert.Error(t, res.Sources[0].Err)
		assert.Equal(t, 3, calls["https://a.ch/news/"], "listing fetch is tried three times")
		assert.NoError(t, res.Sources[1].Err)
		assert.Equal(t, 1, res.Sources[1].Kept)
	})

	t.Run("deduplicates across sources", func(t *testing.T) {
		t.Parallel()

		page := `<a href="https://x.ch/a">16.03.2025 Gleiche Meldung</a>`
		c := newCollector(pages(map[string]string{
			"https://a.ch/": page,
			"https://b.ch/": page,
		}, nil))

		res, err := c.Collect(context.Background(), []*weekly.Source{
			{Name: "a", URL: "https://a.ch/"},
			{Name: "b", URL: "https://b.ch/"},
		})

		require.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
		assert.Equal(t, 1, res.Sources[1].Found)
		assert.Equal(t, 0, res.Sources[1].Kept)
	})

	t.Run("sorts newest first with undated last", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{
			"https://a.ch/": `<a href="/1">Ohne Datum</a><a href="/2">12.03.2025 Älter</a><a href="/3">17.03.2025 Neu</a>`,
		}, nil))

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://a.ch/"}})

		require.NoError(t, err)
		require.Len(t, res.Candidates, 3)
		assert.Equal(t, "https://a.ch/3", res.Candidates[0].URL)
		assert.Equal(t, "https://a.ch/2", res.Candidates[1].URL)
		assert.Equal(t, "https://a.ch/1", res.Candidates[2].URL)
	})

	t.Run("applies per-source and global caps", func(t *testing.T) {
		t.Parallel()

		var sb strings.Builder
		for i := range 10 {
			fmt.Fprintf(&sb, `<a href="/%d">1%d.03.2025 Meldung %d</a>`, i, i%8, i)
		}
		c := newCollector(pages(map[string]string{
			"https://a.ch/": sb.String(),
			"https://b.ch/": strings.ReplaceAll(sb.String(), "Meldung", "Notiz"),
		}, nil))
		c.MaxCandidates = 6

		res, err := c.Collect(context.Background(), []*weekly.Source{
			{Name: "a", URL: "https://a.ch/", MaxItems: 4},
			{Name: "b", URL: "https://b.ch/"},
		})

		require.NoError(t, err)
		assert.Len(t, res.Candidates, 6)
		assert.Equal(t, 4, res.Sources[0].Kept)
		assert.Equal(t, 2, res.Sources[1].Kept)
	})

	t.Run("stops reading sources once the global cap is full", func(t *testing.T) {
		t.Parallel()

		calls := map[string]int{}
		c := newCollector(pages(map[string]string{
			"https://a.ch/": `<a href="/1">17.03.2025 Eins</a><a href="/2">16.03.2025 Zwei</a>`,
			"https://b.ch/": `<a href="/3">17.03.2025 Drei</a>`,
		}, calls))
		c.MaxCandidates = 2

		res, err := c.Collect(context.Background(), []*weekly.Source{
			{Name: "a", URL: "https://a.ch/"},
			{Name: "b", URL: "https://b.ch/"},
		})

		require.NoError(t, err)
		assert.Len(t, res.Candidates, 2)
		assert.Len(t, res.Sources, 1)
		assert.Zero(t, calls["https://b.ch/"])
	})

	t.Run("same url under different titles is kept twice", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{
			"https://a.ch/": `<a href="https://c.ch/meldung">17.03.2025 Sanktionen ergänzt</a>`,
			"https://b.ch/": `<a href="https://c.ch/meldung">17.03.2025 Neue Sanktionen</a>`,
		}, nil))

		res, err := c.Collect(context.Background(), []*weekly.Source{
			{Name: "a", URL: "https://a.ch/"},
			{Name: "b", URL: "https://b.ch/"},
		})

		require.NoError(t, err)
		assert.Len(t, res.Candidates, 2)
	})

	t.Run("attaches snippets for sources that ask for them", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{
			"https://a.ch/":   `<a href="/ok">17.03.2025 Mit Text</a><a href="/gone">17.03.2025 Weg</a>`,
			"https://a.ch/ok": `<article><p>Der erste Absatz.</p></article>`,
		}, nil))

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://a.ch/", Snippet: true}})

		require.NoError(t, err)
		require.Len(t, res.Candidates, 2)
		snippets := map[string]string{}
		for _, cand := range res.Candidates {
			snippets[cand.URL] = cand.Snippet
		}
		assert.Equal(t, "Der erste Absatz.", snippets["https://a.ch/ok"])
		assert.Empty(t, snippets["https://a.ch/gone"])
	})

	t.Run("feed source without feed extractor is skipped", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{"https://a.ch/feed": "<rss/>"}, nil))

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "feed", URL: "https://a.ch/feed", Kind: weekly.SourceFeed}})

		require.NoError(t, err)
		assert.Empty(t, res.Candidates)
		assert.Equal(t, weekly.EINVALID, weekly.ErrorCode(res.Sources[0].Err))
	})

	t.Run("feed sources use the feed extractor", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		c := newCollector(pages(map[string]string{"https://a.ch/feed": "<rss/>"}, nil))
		c.Feeds = &mock.CandidateExtractor{
			ExtractCandidatesFn: func(content, pageURL string, src *weekly.Source, today time.Time) ([]*weekly.Candidate, error) {
				gotURL = pageURL
				return []*weekly.Candidate{{Title: "Aus dem Feed", URL: "https://a.ch/1", Date: today}}, nil
			},
		}

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "feed", URL: "https://a.ch/feed", Kind: weekly.SourceFeed}})

		require.NoError(t, err)
		assert.Equal(t, "https://a.ch/feed", gotURL)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "Aus dem Feed", res.Candidates[0].Title)
	})

	t.Run("snippet extraction failure leaves the snippet empty", func(t *testing.T) {
		t.Parallel()

		var gotMax int
		c := newCollector(pages(map[string]string{
			"https://a.ch/":   `<a href="/ok">17.03.2025 Mit Text</a>`,
			"https://a.ch/ok": `<p>Absatz</p>`,
		}, nil))
		c.SnippetChars = 120
		c.Snippets = &mock.SnippetExtractor{
			ExtractSnippetFn: func(html string, maxChars int) (string, error) {
				gotMax = maxChars
				return "", errors.New("no paragraphs")
			},
		}

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://a.ch/", Snippet: true}})

		require.NoError(t, err)
		require.Len(t, res.Candidates, 1)
		assert.Empty(t, res.Candidates[0].Snippet)
		assert.Equal(t, 120, gotMax)
	})

	t.Run("browser fetcher serves flagged sources", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(nil, nil))
		c.Browser = pages(map[string]string{"https://a.ch/": `<a href="/x">17.03.2025 Gerendert</a>`}, nil)

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://a.ch/", Browser: true}})

		require.NoError(t, err)
		assert.Len(t, res.Candidates, 1)
	})

	t.Run("falls back to the browser when the static listing is empty", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{"https://a.ch/": `<div id="app"></div>`}, nil))
		c.Browser = pages(map[string]string{"https://a.ch/": `<a href="/x">17.03.2025 Gerendert</a>`}, nil)
		c.BrowserFallback = true

		res, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://a.ch/"}})

		require.NoError(t, err)
		require.Len(t, res.Candidates, 1)
		assert.Equal(t, "https://a.ch/x", res.Candidates[0].URL)
	})

	t.Run("waits on the rate limiter per host", func(t *testing.T) {
		t.Parallel()

		var hosts []string
		c := newCollector(pages(map[string]string{"https://www.a.ch/": `<a href="/x">17.03.2025 X</a>`}, nil))
		c.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, domain string) error {
				hosts = append(hosts, domain)
				return nil
			},
		}

		_, err := c.Collect(context.Background(), []*weekly.Source{{Name: "a", URL: "https://www.a.ch/"}})

		require.NoError(t, err)
		assert.Equal(t, []string{"www.a.ch"}, hosts)
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newCollector(pages(nil, nil)).Collect(ctx, []*weekly.Source{{Name: "a", URL: "https://a.ch/"}})

		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestCollector_Upcoming(t *testing.T) {
	t.Parallel()

	t.Run("returns soonest future events first", func(t *testing.T) {
		t.Parallel()

		c := newCollector(pages(map[string]string{
			"https://iguv.ch/event/": `
<a href="/event/c">12.06.2025 Sommeranlass</a>
<a href="/event/a">20.03.2025 Lunch-Referat</a>
<a href="/event/old">01.03.2025 Vorbei</a>
<a href="/event/b">20.05.2025 Generalversammlung</a>
<a href="/event/d">01.09.2025 Herbstseminar</a>`,
		}, nil))

		events, err := c.Upcoming(context.Background(), &weekly.Source{Name: "events", URL: "https://iguv.ch/event/", RequireDate: true}, 3)

		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "https://iguv.ch/event/a", events[0].URL)
		assert.Equal(t, "https://iguv.ch/event/b", events[1].URL)
		assert.Equal(t, "https://iguv.ch/event/c", events[2].URL)
	})

	t.Run("fetch failure yields no events", func(t *testing.T) {
		t.Parallel()

		events, err := newCollector(pages(nil, nil)).Upcoming(context.Background(), &weekly.Source{Name: "events", URL: "https://iguv.ch/event/"}, 3)

		require.NoError(t, err)
		assert.NotNil(t, events)
		assert.Empty(t, events)
	})
}
