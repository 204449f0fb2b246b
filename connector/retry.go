package connector

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultRetryDelay = time.Second
	defaultBackoff    = 2
)

// retryConnect calls connectFn until it succeeds, ctx ends or
// opts.MaxRetries retries were spent. The delay between attempts grows by
// opts.Backoff and is capped at opts.MaxDelay.
func retryConnect(ctx context.Context, opts RetryConfig, connectFn func(context.Context) (Connection, error)) (Connection, error) {
	delay := opts.BaseDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	backoff := opts.Backoff
	if backoff < 1 {
		backoff = defaultBackoff
	}

	var err error
	for attempt := 0; ; attempt++ {
		var conn Connection
		conn, err = connectFn(ctx)
		if err == nil {
			return conn, nil
		}
		if attempt >= opts.MaxRetries {
			return nil, err
		}
		slog.WarnContext(ctx, "connection attempt failed",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_in", delay),
			slog.Any("error", err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * backoff)
		if opts.MaxDelay > 0 && delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}
