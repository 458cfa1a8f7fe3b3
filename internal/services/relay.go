package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tainyuhu/pin-server/internal/cache"

	"github.com/google/uuid"
)

const tempTokenKeyPrefix = "temp_auth_"

// ResultRelay bridges the redirect half of the flow to the frontend. The
// browser only ever sees an opaque one-time token in the URL; the actual
// payload travels over a back-channel exchange call.
type ResultRelay struct {
	results cache.Cache[Result]
	ttl     time.Duration
}

// NewResultRelay creates a relay storing results for the given TTL.
func NewResultRelay(results cache.Cache[Result], ttl time.Duration) *ResultRelay {
	return &ResultRelay{results: results, ttl: ttl}
}

// StoreResult stores the payload under a fresh opaque token.
func (r *ResultRelay) StoreResult(ctx context.Context, res *Result) (string, error) {
	token := uuid.New().String()
	if err := r.results.Set(ctx, tempTokenKeyPrefix+token, *res, r.ttl); err != nil {
		return "", fmt.Errorf("store result: %w", err)
	}
	return token, nil
}

// RedirectURL builds the frontend landing URL. Success and failure use the
// same shape, so the frontend always performs the same exchange step.
func (r *ResultRelay) RedirectURL(frontendBase, token, mode string) string {
	q := url.Values{}
	q.Set("temp_token", token)
	q.Set("mode", mode)
	return frontendBase + "?" + q.Encode()
}

// Exchange consumes a token and returns the stored payload. A second call
// with the same token reports invalid-or-expired, indistinguishable from
// genuine expiry.
func (r *ResultRelay) Exchange(ctx context.Context, token string) (*Result, error) {
	res, err := r.results.Take(ctx, tempTokenKeyPrefix+token)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrTempTokenInvalid
		}
		return nil, fmt.Errorf("exchange temp token: %w", err)
	}
	return &res, nil
}
