package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/iguv/weekly"
)

// Ensure LoggingPublisher implements weekly.Publisher.
var _ weekly.Publisher = (*LoggingPublisher)(nil)

// LoggingPublisher wraps a Publisher with logging. Forced overwrites and
// duplicated anchors are logged as warnings.
type LoggingPublisher struct {
	next   weekly.Publisher
	logger *slog.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher.
func NewLoggingPublisher(next weekly.Publisher, logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{next: next, logger: logger}
}

// Publish logs the fragment checksum and the replacement outcome.
func (p *LoggingPublisher) Publish(ctx context.Context, fragment string) (res *weekly.PublishResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"checksum", xxhash.Sum64String(fragment),
			"fragment_bytes", len(fragment),
			"duration", time.Since(begin),
			"err", err,
		}
		if res == nil {
			p.logger.Info("publish", attrs...)
			return
		}
		attrs = append(attrs,
			"target", res.Target,
			"mode", res.Mode,
			"occurrences", res.Occurrences,
			"bytes", res.Bytes,
		)
		p.logger.Info("publish", attrs...)
		if res.Forced {
			p.logger.Warn("existing html widget overwritten without anchor", "target", res.Target)
		}
		if res.Occurrences > 1 {
			p.logger.Warn("anchor found more than once, only the first was replaced",
				"target", res.Target,
				"occurrences", res.Occurrences,
			)
		}
	}(time.Now())
	return p.next.Publish(ctx, fragment)
}
