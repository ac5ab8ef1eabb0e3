// Package throttle rate-limits outbound transfers using a token-bucket
// algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Create a [Limiter] and acquire a token before starting each transfer:
//
//	lim, err := throttle.New(
//		10, // transfers per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//	)
//	if err := lim.Acquire(ctx); err != nil {
//		return err
//	}
//
// When the rate limit is exceeded, Acquire blocks until a token becomes
// available or the context is cancelled. A nil *Limiter admits
// everything, so callers need no conditional around the acquire.
package throttle
