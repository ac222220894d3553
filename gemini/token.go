package gemini

import (
	"context"

	"github.com/iguv/weekly"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

var _ weekly.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts prompt tokens locally, without an API call.
type TokenCounter struct {
	model string
	tok   *tokenizer.LocalTokenizer
}

// NewTokenCounter loads the tokenizer of model. Models unknown to the local
// tokenizer are rejected with EINVALID.
func NewTokenCounter(model string) (*TokenCounter, error) {
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, weekly.Errorf(weekly.EINVALID, "no local tokenizer for %q: %v", model, err)
	}
	return &TokenCounter{model: model, tok: tok}, nil
}

// CountTokens returns the size of text as a single user turn.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}

	res, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, weekly.Errorf(weekly.EINTERNAL, "count tokens (%s): %v", tc.model, err)
	}
	return int(res.TotalTokens), nil
}
