// SPDX-License-Identifier: MIT

// Package retry wraps operations with bounded exponential backoff.
package retry

import (
	"context"
	"time"
)

// Options tunes the backoff behaviour. The zero value picks the defaults.
type Options struct {
	MaxRetries   int                       // additional attempts after the first (default 3)
	InitialDelay time.Duration             // delay before the first retry (default 1s)
	MaxDelay     time.Duration             // backoff ceiling (default 10s)
	Multiplier   float64                   // delay growth factor (default 2)
	Retryable    func(error) bool          // nil = retry everything
	sleep        func(context.Context, time.Duration) error
}

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = time.Second
	defaultMaxDelay     = 10 * time.Second
	defaultMultiplier   = 2.0
)

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = defaultInitialDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = defaultMaxDelay
	}
	if o.Multiplier <= 1 {
		o.Multiplier = defaultMultiplier
	}
	if o.Retryable == nil {
		o.Retryable = func(error) bool { return true }
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	return o
}

// Do runs op, retrying retryable failures with exponential backoff. The last
// error propagates after exhaustion. Context cancellation aborts the wait and
// is never retried. Do never sleeps after the final attempt.
func Do(ctx context.Context, op func(context.Context) error, opts Options) error {
	o := opts.withDefaults()
	delay := o.InitialDelay

	var lastErr error
	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !o.Retryable(lastErr) {
			return lastErr
		}
		if attempt == o.MaxRetries {
			break
		}
		if err := o.sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * o.Multiplier)
		if delay > o.MaxDelay {
			delay = o.MaxDelay
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
