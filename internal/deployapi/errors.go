package deployapi

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Sentinel errors used for classification by the watch engine. Fatal
// conditions (missing deployment, bad credentials) abort the watch;
// transient ones are retried with backoff scoped to the failing tailer;
// group-level conditions degrade a single tailer without stopping the rest.
var (
	ErrNotFound      = errors.New("deployment not found")
	ErrGroupNotFound = errors.New("log group not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrThrottled     = errors.New("throttled")
	ErrExpiredCursor = errors.New("expired cursor")
	ErrUnavailable   = errors.New("service unavailable")
)

// IsFatal reports whether the error should abort the whole watch.
func IsFatal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}

// IsTransient reports whether the error warrants a retry with backoff.
// Network-level failures and deadline overruns count as transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrThrottled) || errors.Is(err, ErrUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
