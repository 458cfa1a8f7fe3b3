package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRelayRoundTrip(t *testing.T) {
	relay := NewResultRelay(cache.NewMemoryCache[Result](), time.Minute)
	ctx := context.Background()

	stored := &Result{
		Success:    true,
		Mode:       ModeLogin,
		StatusCode: http.StatusOK,
		UserID:     "u1",
		Username:   "alice",
	}

	token, err := relay.StoreResult(ctx, stored)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := relay.Exchange(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	// second exchange is indistinguishable from expiry
	_, err = relay.Exchange(ctx, token)
	assert.ErrorIs(t, err, ErrTempTokenInvalid)
}

func TestRelayExchangeUnknownToken(t *testing.T) {
	relay := NewResultRelay(cache.NewMemoryCache[Result](), time.Minute)

	_, err := relay.Exchange(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrTempTokenInvalid)
}

func TestRelayRedirectURL(t *testing.T) {
	relay := NewResultRelay(cache.NewMemoryCache[Result](), time.Minute)

	raw := relay.RedirectURL("https://app.example.com/line-result", "tok-1", ModeBinding)
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", parsed.Query().Get("temp_token"))
	assert.Equal(t, ModeBinding, parsed.Query().Get("mode"))
	assert.Equal(t, "/line-result", parsed.Path)
}

func TestRelayStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockCache := mocks.NewMockCache[Result](ctrl)
	mockCache.EXPECT().
		Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("redis down"))

	relay := NewResultRelay(mockCache, time.Minute)

	_, err := relay.StoreResult(context.Background(), &Result{Success: true})
	assert.Error(t, err)
}
