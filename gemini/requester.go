// Package gemini implements digest generation with Google Gemini.
package gemini

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iguv/weekly"
	"google.golang.org/genai"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultRetryDelays returns the waits between generation attempts.
func DefaultRetryDelays() []time.Duration {
	return weekly.BackoffDelays(10*time.Second, 3)
}

// Ensure Requester implements weekly.Requester at compile time.
var _ weekly.Requester = (*Requester)(nil)

// Requester implements weekly.Requester using Google Gemini.
type Requester struct {
	client    *genai.Client
	model     string
	counter   weekly.TokenCounter
	budget    int
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

// WithTokenBudget trims candidates until the user prompt fits budget tokens.
func WithTokenBudget(tc weekly.TokenCounter, budget int) Option {
	return func(r *Requester) {
		r.counter = tc
		r.budget = budget
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

// NewRequester creates a new Requester.
func NewRequester(client *genai.Client, opts ...Option) *Requester {
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

// RequestDigest asks Gemini for the digest described by req.
func (r *Requester) RequestDigest(ctx context.Context, req *weekly.DigestRequest) (*weekly.Digest, error) {
	if req == nil || len(req.Sections) == 0 {
		return nil, weekly.Errorf(weekly.EINVALID, "at least one section required")
	}

	fitted, err := weekly.FitCandidates(ctx, r.counter, req, r.budget)
	if err != nil {
		return nil, err
	}
	if dropped := len(req.Candidates) - len(fitted.Candidates); dropped > 0 {
		r.logger.Info("candidates trimmed to fit token budget", "dropped", dropped, "budget", r.budget)
	}

	prompt := weekly.BuildUserPrompt(fitted)
	config := BuildConfig(fitted)

	var raw string
	err = weekly.Retry(ctx, r.delays, func(ctx context.Context) error {
		result, err := r.client.Models.GenerateContent(ctx, r.model, genai.Text(prompt), config)
		if err != nil {
			if !IsTransient(err) {
				return weekly.Permanent(err)
			}
			return err
		}
		if result == nil {
			return weekly.Permanent(errors.New("gemini returned nil result"))
		}
		raw = result.Text()
		return nil
	}, func(attempt int, err error, wait time.Duration) {
		r.logger.Warn("generation attempt failed", "attempt", attempt, "wait", wait, "err", err)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, weekly.Errorf(weekly.EUNAVAILABLE, "gemini generation failed: %v", err)
	}

	if fitted.Mode == weekly.ModeHTML {
		d := weekly.EmptyDigest()
		d.HTML = weekly.DecodeHTMLBody(raw)
		return d, nil
	}

	d, warnings := weekly.DecodeDigest(raw, fitted.Limits, r.validator)
	for _, w := range warnings {
		r.logger.Warn("digest response", "problem", w)
	}
	return d, nil
}

// BuildConfig returns the GenerateContentConfig for a digest request.
// Search grounding and a JSON response type cannot be combined, so web
// search requests rely on the prompt for the output shape.
func BuildConfig(req *weekly.DigestRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: weekly.BuildInstructions(req),
			}},
		},
	}
	switch {
	case req.WebSearch:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case req.Mode != weekly.ModeHTML:
		config.ResponseMIMEType = "application/json"
	}
	return config
}

// IsTransient reports whether a failed call is worth retrying. Rate limits,
// server errors and network failures are; other API rejections are not.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return transientStatus(apiErrPtr.Code)
	}
	return true
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
