package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/iguv/weekly"
	"github.com/iguv/weekly/crawl"
	"github.com/iguv/weekly/fs"
	"github.com/iguv/weekly/gemini"
	"github.com/iguv/weekly/gofeed"
	"github.com/iguv/weekly/goquery"
	"github.com/iguv/weekly/htmltomarkdown"
	wkhttp "github.com/iguv/weekly/http"
	"github.com/iguv/weekly/jsonschema"
	"github.com/iguv/weekly/openai"
	"github.com/iguv/weekly/readability"
	"github.com/iguv/weekly/render"
	"github.com/iguv/weekly/rod"
	wslog "github.com/iguv/weekly/slog"
	"github.com/iguv/weekly/trafilatura"
	"github.com/iguv/weekly/wordpress"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// A missing .env is fine; the environment may be set by cron or CI.
	_ = godotenv.Load()

	m := NewMain()
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Error(weekly.ErrorMessage(err), "code", weekly.ErrorCode(err), "err", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch weekly.ErrorCode(err) {
	case weekly.EINVALID:
		return 2
	case weekly.EUNAVAILABLE:
		return 3
	case weekly.EPUBLISH:
		return 4
	default:
		return 1
	}
}

// Main represents the program.
type Main struct {
	// Services for end-to-end testing. When set they replace the ones
	// built from the configuration.
	Fetcher   weekly.Fetcher
	Requester weekly.Requester
	Publisher weekly.Publisher

	// Getenv resolves placeholders in the sources file.
	Getenv func(string) string

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Getenv: os.Getenv,
		Now:    time.Now,
	}
}

// Close releases the services opened by Run.
func (m *Main) Close() error {
	var errs []error
	for _, c := range m.closers {
		errs = append(errs, c.Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("weekly"),
		kong.Description("Builds the weekly compliance digest and publishes it to WordPress."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return weekly.Errorf(weekly.EINVALID, "no command specified. Run 'weekly --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return weekly.Errorf(weekly.EINVALID, "%v", err)
	}
	command := kctx.Selected().Name

	deps.Logger = newLogger(stderr, cli.Debug, cli.LogJSON).With("run", uuid.NewString(), "command", command)

	sources, err := LoadSources(cli.Sources, m.lookup(cli))
	if err != nil {
		return err
	}
	deps.Sources = sources

	cfg := NewConfig(cli, command)
	if err := cfg.Validate(); err != nil {
		return err
	}

	defer m.Close()
	if err := m.wire(ctx, deps, cfg); err != nil {
		return err
	}

	return kctx.Run(deps)
}

// lookup resolves sources file placeholders, with WP_BASE taken from the
// parsed flags.
func (m *Main) lookup(cli *CLI) func(string) string {
	getenv := m.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return func(name string) string {
		if name == "WP_BASE" && cli.WPBase != "" {
			return strings.TrimRight(cli.WPBase, "/")
		}
		return getenv(name)
	}
}

func newLogger(w io.Writer, debug, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// wire builds the services the configuration asks for.
func (m *Main) wire(ctx context.Context, deps *Dependencies, cfg *Config) error {
	logger := deps.Logger

	collector, err := m.newCollector(cfg.Collect, logger)
	if err != nil {
		return err
	}
	deps.Collector = collector

	if cfg.Generate != nil {
		requester, err := m.newRequester(ctx, cfg.Generate, deps.Sources.Sections, logger)
		if err != nil {
			return err
		}
		deps.Requester = requester
		deps.Renderer = render.NewRenderer(render.WithSanitizer(goquery.StripMarkup))
		deps.Converter = htmltomarkdown.NewConverter()
	}

	if cfg.Publish != nil {
		deps.Publisher = wslog.NewLoggingPublisher(m.newPublisher(cfg), logger)
	}
	return nil
}

func (m *Main) newCollector(cf CollectFlags, logger *slog.Logger) (*crawl.Collector, error) {
	fetcher := m.Fetcher
	if fetcher == nil {
		opts := []wkhttp.Option{wkhttp.WithTimeout(cf.FetchTimeout)}
		if cf.UserAgent != "" {
			opts = append(opts, wkhttp.WithUserAgent(cf.UserAgent))
		}
		fetcher = wkhttp.NewFetcher(opts...)
	}

	c := &crawl.Collector{
		Fetcher:       wslog.NewLoggingFetcher(fetcher, logger),
		Pages:         goquery.NewCandidateExtractor(),
		Feeds:         &gofeed.CandidateExtractor{SnippetChars: cf.SnippetChars},
		Snippets:      snippetExtractor(cf.Snippets),
		RateLimiter:   crawl.NewDomainLimiter(cf.Interval),
		Logger:        logger,
		MaxCandidates: cf.MaxCandidates,
		SnippetChars:  cf.SnippetChars,
		Now:           m.Now,
	}

	if cf.Browser && m.Fetcher == nil {
		opts := []rod.Option{rod.WithTimeout(cf.FetchTimeout)}
		if cf.UserAgent != "" {
			opts = append(opts, rod.WithUserAgent(cf.UserAgent))
		}
		browser, err := rod.NewFetcher(opts...)
		if err != nil {
			return nil, weekly.Errorf(weekly.EUNAVAILABLE, "failed to start browser (Chrome or Chromium must be installed): %v", err)
		}
		m.closers = append(m.closers, browser)
		c.Browser = wslog.NewLoggingFetcher(browser, logger)
		c.BrowserFallback = true
	}
	return c, nil
}

func snippetExtractor(name string) weekly.SnippetExtractor {
	paragraphs := goquery.NewSnippetExtractor()
	switch name {
	case "trafilatura":
		return trafilatura.NewSnippetExtractor(paragraphs)
	case "readability":
		return readability.NewSnippetExtractor(paragraphs)
	default:
		return paragraphs
	}
}

func (m *Main) newRequester(ctx context.Context, gf *GenerateFlags, sections []weekly.SectionSpec, logger *slog.Logger) (weekly.Requester, error) {
	if m.Requester != nil {
		return wslog.NewLoggingRequester(m.Requester, logger), nil
	}

	limits := weekly.DefaultLimits()
	limits.MaxItems = gf.MaxItems
	validator, err := jsonschema.NewValidator(sections, limits)
	if err != nil {
		return nil, err
	}

	var r weekly.Requester
	switch gf.Provider {
	case "gemini":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  gf.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, weekly.Errorf(weekly.EUNAVAILABLE, "failed to connect to Gemini API: %v", err)
		}
		opts := []gemini.Option{
			gemini.WithModel(gf.GeminiModel),
			gemini.WithValidator(validator),
			gemini.WithLogger(logger),
		}
		if gf.TokenBudget > 0 {
			tc, err := gemini.NewTokenCounter(gemini.DefaultModel)
			if err != nil {
				return nil, fmt.Errorf("failed to create token counter: %w", err)
			}
			opts = append(opts, gemini.WithTokenBudget(tc, gf.TokenBudget))
		}
		r = gemini.NewRequester(client, opts...)
	default:
		r = openai.NewRequester(openai.NewClient(gf.OpenAIAPIKey, gf.OpenAIBaseURL),
			openai.WithModel(gf.OpenAIModel),
			openai.WithValidator(validator),
			openai.WithLogger(logger),
		)
	}
	return wslog.NewLoggingRequester(r, logger), nil
}

func (m *Main) newPublisher(cfg *Config) weekly.Publisher {
	if m.Publisher != nil {
		return m.Publisher
	}

	pf := cfg.Publish
	anchor := weekly.DefaultAnchor()
	if pf.Target == TargetFile {
		return fs.NewFilePublisher(pf.Output, anchor)
	}

	opts := []wordpress.Option{wordpress.WithTimeout(pf.Timeout)}
	if pf.WPToken != "" {
		opts = append(opts, wordpress.WithToken(pf.WPTokenHeader, pf.WPToken))
	}
	if cfg.Collect.UserAgent != "" {
		opts = append(opts, wordpress.WithUserAgent(cfg.Collect.UserAgent))
	}
	client := wordpress.NewClient(cfg.WPBase, pf.WPUsername, pf.WPAppPassword, opts...)

	switch pf.Target {
	case TargetPage:
		return wordpress.NewPagePublisher(client, pf.PageID, anchor)
	case TargetElementor:
		return wordpress.NewElementorPublisher(client, pf.PageID, anchor, pf.ForceOverwrite)
	default:
		return wordpress.NewEndpointPublisher(client)
	}
}
