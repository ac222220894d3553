package weekly

import (
	"context"
	"errors"
	"time"
)

// BackoffDelays returns the waits between attempts of an exponential
// backoff: base, 2*base, 4*base... for attempts-1 retries.
func BackoffDelays(base time.Duration, attempts int) []time.Duration {
	if attempts < 2 {
		return nil
	}
	delays := make([]time.Duration, attempts-1)
	d := base
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return delays
}

// FixedDelays returns attempts-1 identical waits.
func FixedDelays(d time.Duration, attempts int) []time.Duration {
	if attempts < 2 {
		return nil
	}
	delays := make([]time.Duration, attempts-1)
	for i := range delays {
		delays[i] = d
	}
	return delays
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Retry calls fn once, then once more after each delay while it keeps
// failing. It stops early on success, on a Permanent error or when ctx is
// done. onRetry, if set, is called before each wait with the attempt number
// that failed.
func Retry(ctx context.Context, delays []time.Duration, fn func(ctx context.Context) error, onRetry func(attempt int, err error, wait time.Duration)) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || IsPermanent(err) {
			return err
		}
		if attempt >= len(delays) {
			return err
		}
		if onRetry != nil {
			onRetry(attempt+1, err, delays[attempt])
		}
		if delays[attempt] <= 0 {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
