// Package openai implements digest generation with an OpenAI-compatible
// chat completions API.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iguv/weekly"
	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gpt-5"

// DefaultRetryDelays returns the waits between generation attempts.
func DefaultRetryDelays() []time.Duration {
	return weekly.BackoffDelays(10*time.Second, 3)
}

// Ensure Requester implements weekly.Requester at compile time.
var _ weekly.Requester = (*Requester)(nil)

// Requester implements weekly.Requester over chat completions.
type Requester struct {
	client    *openai.Client
	model     string
	delays    []time.Duration
	validator weekly.DigestValidator
	logger    *slog.Logger
}

// Option configures a Requester.
type Option func(*Requester)

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(r *Requester) {
		if model != "" {
			r.model = model
		}
	}
}

// WithRetryDelays sets the waits between attempts.
func WithRetryDelays(delays []time.Duration) Option {
	return func(r *Requester) {
		r.delays = delays
	}
}

// WithValidator adds schema diagnostics to the decode warnings.
func WithValidator(v weekly.DigestValidator) Option {
	return func(r *Requester) {
		r.validator = v
	}
}

// WithLogger sets the logger for retries and decode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Requester) {
		r.logger = logger
	}
}

// NewClient creates a chat completions client. An empty baseURL keeps the
// library default.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// NewRequester creates a new Requester.
func NewRequester(client *openai.Client, opts ...Option) *Requester {
	r := &Requester{
		client: client,
		model:  DefaultModel,
		delays: DefaultRetryDelays(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RequestDigest asks the chat completions API for the digest described by req.
func (r *Requester) RequestDigest(ctx context.Context, req *weekly.DigestRequest) (*weekly.Digest, error) {
	if req == nil || len(req.Sections) == 0 {
		return nil, weekly.Errorf(weekly.EINVALID, "at least one section required")
	}
	if req.WebSearch {
		// Chat completions carry no search tool.
		r.logger.Info("web search not supported by chat completions, continuing without it", "model", r.model)
	}

	creq := BuildRequest(r.model, req)

	var raw string
	err := weekly.Retry(ctx, r.delays, func(ctx context.Context) error {
		resp, err := r.client.CreateChatCompletion(ctx, creq)
		if err != nil {
			if !IsTransient(err) {
				return weekly.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			raw = ""
			return nil
		}
		raw = resp.Choices[0].Message.Content
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("generation attempt failed", "attempt", attempt, "wait", wait, "err", err)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, weekly.Errorf(weekly.EUNAVAILABLE, "chat completion failed: %v", err)
	}

	if req.Mode == weekly.ModeHTML {
		d := weekly.EmptyDigest()
		d.HTML = weekly.DecodeHTMLBody(raw)
		return d, nil
	}

	d, warnings := weekly.DecodeDigest(raw, req.Limits, r.validator)
	for _, w := range warnings {
		r.logger.Warn("digest response", "problem", w)
	}
	return d, nil
}

// BuildRequest returns the chat completion request for a digest request.
func BuildRequest(model string, req *weekly.DigestRequest) openai.ChatCompletionRequest {
	creq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: weekly.BuildInstructions(req)},
			{Role: openai.ChatMessageRoleUser, Content: weekly.BuildUserPrompt(req)},
		},
	}
	if req.Mode != weekly.ModeHTML {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return creq
}

// IsTransient reports whether a failed call is worth retrying.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	return true
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
