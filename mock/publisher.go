package mock

import (
	"context"

	"github.com/iguv/weekly"
)

var _ weekly.Publisher = (*Publisher)(nil)

// Publisher is a mock implementation of weekly.Publisher.
type Publisher struct {
	PublishFn func(ctx context.Context, fragment string) (*weekly.PublishResult, error)
}

func (p *Publisher) Publish(ctx context.Context, fragment string) (*weekly.PublishResult, error) {
	return p.PublishFn(ctx, fragment)
}
