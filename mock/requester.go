package mock

import (
	"context"

	"github.com/iguv/weekly"
)

var _ weekly.Requester = (*Requester)(nil)

// Requester is a mock implementation of weekly.Requester.
type Requester struct {
	RequestDigestFn func(ctx context.Context, req *weekly.DigestRequest) (*weekly.Digest, error)
}

func (r *Requester) RequestDigest(ctx context.Context, req *weekly.DigestRequest) (*weekly.Digest, error) {
	return r.RequestDigestFn(ctx, req)
}

var _ weekly.DigestValidator = (*DigestValidator)(nil)

// DigestValidator is a mock implementation of weekly.DigestValidator.
type DigestValidator struct {
	ValidateFn func(doc string) []string
}

func (v *DigestValidator) Validate(doc string) []string {
	return v.ValidateFn(doc)
}
