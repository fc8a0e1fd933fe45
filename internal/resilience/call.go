// Package resilience wraps outbound model and search calls with a bounded
// per-attempt timeout and at most one retry on transient failure. Permanent
// failure is returned to the caller, which substitutes the stage's documented
// fallback value instead of propagating.
package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// CallConfig controls the timeout/retry behavior of a wrapped call.
type CallConfig struct {
	// Timeout bounds each attempt. Default: 60s.
	Timeout time.Duration

	// RetryDelay is the pause before the single retry. Default: 500ms.
	RetryDelay time.Duration
}

func (c CallConfig) withDefaults() CallConfig {
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	return c
}

// Call runs fn under cfg, retrying once if the first attempt fails with a
// transient error. Context cancellation stops everything immediately.
func Call[T any](ctx context.Context, cfg CallConfig, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	val, err := attempt(ctx, cfg.Timeout, fn)
	if err == nil || ctx.Err() != nil || !IsTransient(err) {
		return val, err
	}

	zap.L().Warn("transient failure, retrying once",
		zap.String("call", name),
		zap.Error(err),
	)

	timer := time.NewTimer(cfg.RetryDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return val, err
	case <-timer.C:
	}

	return attempt(ctx, cfg.Timeout, fn)
}

func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

// IsTransient reports whether err looks safe to retry: an attempt timeout, a
// network-level timeout, a connection failure, or a retryable HTTP status
// leaked into the message.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"unexpected status 429",
		"unexpected status 500",
		"unexpected status 502",
		"unexpected status 503",
		"unexpected status 504",
		"overloaded",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
