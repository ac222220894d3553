package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/crawl"
	"github.com/iguv/weekly/render"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Sources   *SourcesFile
	Collector *crawl.Collector
	Requester weekly.Requester
	Renderer  *render.Renderer
	Publisher weekly.Publisher
	Converter weekly.Converter

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dependencies) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Sources string `short:"s" type:"path" default:"configs/sources.yaml" env:"WEEKLY_SOURCES" help:"Sources file (YAML)"`
	WPBase  string `name:"wp-base" env:"WP_BASE" help:"WordPress base URL, also substituted for WP_BASE in the sources file"`
	Debug   bool   `env:"WEEKLY_DEBUG" help:"Enable debug logging"`
	LogJSON bool   `name:"log-json" env:"WEEKLY_LOG_JSON" help:"Log as JSON"`

	Run     RunCmd     `cmd:"" help:"Collect, generate, render and publish the weekly digest"`
	Collect CollectCmd `cmd:"" help:"Print the collected candidates as JSON"`
	Events  EventsCmd  `cmd:"" help:"Print the upcoming events as JSON"`
	Preview PreviewCmd `cmd:"" help:"Render the weekly digest without publishing"`
}

// CollectFlags configure how sources are read.
type CollectFlags struct {
	Days          int           `name:"days" default:"7" env:"WEEKLY_DAYS" help:"Look-back window in days for sources without their own" validate:"gte=1,lte=31"`
	MaxCandidates int           `name:"max-candidates" default:"120" help:"Candidates kept across all sources" validate:"gte=1"`
	EventCount    int           `name:"events" default:"3" env:"EVENTS_COUNT" help:"Upcoming events to show" validate:"gte=0,lte=20"`
	Browser       bool          `name:"browser" env:"WEEKLY_BROWSER" help:"Use a headless browser for sources marked browser and for empty listings"`
	Snippets      string        `name:"snippet-extractor" enum:"goquery,trafilatura,readability" default:"goquery" help:"How article snippets are extracted (${enum})"`
	SnippetChars  int           `name:"snippet-chars" default:"400" help:"Maximum snippet length" validate:"gte=50"`
	Interval      time.Duration `name:"interval" default:"1s" help:"Minimum delay between requests to the same host" validate:"gte=0"`
	FetchTimeout  time.Duration `name:"fetch-timeout" default:"30s" help:"Timeout per page fetch" validate:"gt=0"`
	UserAgent     string        `name:"user-agent" env:"USER_AGENT" help:"User-Agent for page fetches"`
}

// GenerateFlags configure the generation service.
type GenerateFlags struct {
	Provider      string        `name:"provider" enum:"openai,gemini" default:"openai" env:"WEEKLY_PROVIDER" help:"Generation service (${enum})" validate:"oneof=openai gemini"`
	OpenAIAPIKey  string        `name:"openai-api-key" env:"OPENAI_API_KEY" help:"OpenAI API key" validate:"required_if=Provider openai"`
	OpenAIBaseURL string        `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"OpenAI-compatible API base URL" validate:"omitempty,url"`
	OpenAIModel   string        `name:"openai-model" env:"OPENAI_MODEL" default:"gpt-5" help:"OpenAI model"`
	GeminiAPIKey  string        `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key" validate:"required_if=Provider gemini"`
	GeminiModel   string        `name:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.5-flash" help:"Gemini model"`
	WebSearch     bool          `name:"web-search" env:"USE_WEBSEARCH" default:"true" negatable:"" help:"Let the model search the web"`
	Mode          string        `name:"mode" enum:"json,html" default:"json" help:"Response shape requested from the model (${enum})"`
	MaxItems      int           `name:"max-items" default:"5" env:"WEEKLY_MAX_ITEMS" help:"Items per section" validate:"gte=1,lte=7"`
	TokenBudget   int           `name:"token-budget" default:"0" help:"Trim candidates until the prompt fits this many tokens (gemini only, 0 disables)" validate:"gte=0"`
	Timeout       time.Duration `name:"generate-timeout" default:"600s" help:"Timeout for the generation call including retries" validate:"gt=0"`
}

// PublishFlags configure where the fragment is written.
type PublishFlags struct {
	Target         string        `name:"target" enum:"endpoint,page,elementor,file" default:"endpoint" env:"WEEKLY_TARGET" help:"Publish target (${enum})" validate:"oneof=endpoint page elementor file"`
	WPUsername     string        `name:"wp-username" env:"WP_USERNAME" help:"WordPress user" validate:"required_unless=Target file"`
	WPAppPassword  string        `name:"wp-app-password" env:"WP_APP_PASSWORD" help:"WordPress application password" validate:"required_unless=Target file"`
	WPToken        string        `name:"wp-token" env:"WP_TOKEN" help:"Optional token sent in the token header"`
	WPTokenHeader  string        `name:"wp-token-header" env:"WP_TOKEN_HEADER" default:"X-IGUV-Token" help:"Header carrying the token"`
	PageID         int           `name:"page-id" env:"WP_PAGE_ID" help:"Page to update for the page and elementor targets" validate:"gte=0"`
	ForceOverwrite bool          `name:"force-overwrite" help:"Overwrite the first HTML widget when no anchor is found (elementor)"`
	Output         string        `name:"output" short:"o" type:"path" help:"File to publish into for the file target"`
	Timeout        time.Duration `name:"publish-timeout" default:"30s" help:"Timeout per publish request" validate:"gt=0"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	CollectFlags  `embed:""`
	GenerateFlags `embed:""`
	PublishFlags  `embed:""`
}

// CollectCmd is the "collect" subcommand.
type CollectCmd struct {
	CollectFlags `embed:""`
}

// EventsCmd is the "events" subcommand.
type EventsCmd struct {
	CollectFlags `embed:""`
}

// PreviewCmd is the "preview" subcommand.
type PreviewCmd struct {
	CollectFlags  `embed:""`
	GenerateFlags `embed:""`
	Markdown      bool `name:"markdown" help:"Print the fragment as Markdown"`
}
