package weekly

import "context"

// TokenCounter counts tokens in text for a specific model.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// FitCandidates returns a copy of req whose user prompt fits within budget
// tokens, dropping candidates from the end of the list (the oldest, once
// sorted). A non-positive budget or a nil counter returns req unchanged.
func FitCandidates(ctx context.Context, tc TokenCounter, req *DigestRequest, budget int) (*DigestRequest, error) {
	if tc == nil || budget <= 0 {
		return req, nil
	}

	fitted := *req
	for {
		n, err := tc.CountTokens(ctx, BuildUserPrompt(&fitted))
		if err != nil {
			return nil, err
		}
		if n <= budget || len(fitted.Candidates) == 0 {
			return &fitted, nil
		}
		drop := len(fitted.Candidates) / 10
		if drop < 1 {
			drop = 1
		}
		fitted.Candidates = fitted.Candidates[:len(fitted.Candidates)-drop]
	}
}
