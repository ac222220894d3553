package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/iguv/weekly"
)

// Ensure LoggingRequester implements weekly.Requester.
var _ weekly.Requester = (*LoggingRequester)(nil)

// LoggingRequester wraps a Requester with logging.
type LoggingRequester struct {
	next   weekly.Requester
	logger *slog.Logger
}

// NewLoggingRequester creates a new LoggingRequester.
func NewLoggingRequester(next weekly.Requester, logger *slog.Logger) *LoggingRequester {
	return &LoggingRequester{next: next, logger: logger}
}

// RequestDigest logs the request size and the shape of the result.
func (r *LoggingRequester) RequestDigest(ctx context.Context, req *weekly.DigestRequest) (d *weekly.Digest, err error) {
	defer func(begin time.Time) {
		var briefing, items, htmlBytes int
		if d != nil {
			briefing = len(d.Briefing)
			for _, s := range d.Sections {
				items += len(s.Items)
			}
			htmlBytes = len(d.HTML)
		}
		r.logger.Info("digest",
			"mode", req.Mode,
			"candidates", len(req.Candidates),
			"web_search", req.WebSearch,
			"briefing", briefing,
			"items", items,
			"html_bytes", htmlBytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.RequestDigest(ctx, req)
}
