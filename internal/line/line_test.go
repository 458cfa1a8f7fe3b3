package line

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tainyuhu/pin-server/internal/config"

	retry "github.com/appleboy/go-httpretry"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoginConfig() *config.Config {
	return &config.Config{
		LineLoginChannelID:     "1234567890",
		LineLoginChannelSecret: "channel-secret",
		LineLoginCallbackURL:   "https://example.com/api/line/login/callback",
		LineLoginScopes:        []string{"profile", "openid", "email"},
	}
}

func signIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("channel-secret"))
	require.NoError(t, err)
	return signed
}

func TestAuthURL(t *testing.T) {
	lc := NewLoginClient(testLoginConfig())

	raw := lc.AuthURL("state-abc", "nonce-xyz")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "access.line.me", parsed.Host)
	assert.Equal(t, authorizePath, parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "1234567890", q.Get("client_id"))
	assert.Equal(t, "state-abc", q.Get("state"))
	assert.Equal(t, "nonce-xyz", q.Get("nonce"))
	assert.Equal(t, "https://example.com/api/line/login/callback", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "openid")
}

func TestExchangeCode(t *testing.T) {
	idToken := signIDToken(t, jwt.MapClaims{
		"sub":     "U1234",
		"name":    "Test User",
		"picture": "https://profile.line-scdn.net/abc",
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, tokenPath, r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "the-code", r.FormValue("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "at-123",
			"refresh_token": "rt-456",
			"id_token": "` + idToken + `",
			"token_type": "Bearer",
			"expires_in": 2592000,
			"scope": "profile openid email"
		}`))
	}))
	defer srv.Close()

	lc := NewLoginClient(testLoginConfig(),
		WithLoginBaseURLs(srv.URL, srv.URL),
		WithLoginHTTPClient(srv.Client()),
	)

	ts, err := lc.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at-123", ts.AccessToken)
	assert.Equal(t, "rt-456", ts.RefreshToken)
	assert.Equal(t, idToken, ts.IDToken)
	assert.Equal(t, int64(2592000), ts.ExpiresIn)

	profile, err := lc.ResolveProfile(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, "U1234", profile.LineUserID)
	assert.Equal(t, "Test User", profile.DisplayName)
}

func TestExchangeCodeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"invalid authorization code"}`))
	}))
	defer srv.Close()

	lc := NewLoginClient(testLoginConfig(),
		WithLoginBaseURLs(srv.URL, srv.URL),
		WithLoginHTTPClient(srv.Client()),
	)

	_, err := lc.ExchangeCode(context.Background(), "bad-code")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_grant", apiErr.Code)
	assert.Equal(t, "invalid authorization code", apiErr.Description)
}

func TestResolveProfileFallsBackToProfileAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, profilePath, r.URL.Path)
		assert.Equal(t, "Bearer at-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"userId": "U5678",
			"displayName": "Fallback User",
			"pictureUrl": "https://profile.line-scdn.net/def"
		}`))
	}))
	defer srv.Close()

	lc := NewLoginClient(testLoginConfig(),
		WithLoginBaseURLs(srv.URL, srv.URL),
		WithLoginHTTPClient(srv.Client()),
	)

	// no id_token in the token set
	profile, err := lc.ResolveProfile(context.Background(), &TokenSet{AccessToken: "at-123"})
	require.NoError(t, err)
	assert.Equal(t, "U5678", profile.LineUserID)
	assert.Equal(t, "Fallback User", profile.DisplayName)
}

func TestResolveProfileUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	lc := NewLoginClient(testLoginConfig(),
		WithLoginBaseURLs(srv.URL, srv.URL),
		WithLoginHTTPClient(srv.Client()),
	)

	_, err := lc.ResolveProfile(context.Background(), &TokenSet{
		IDToken:     "not-a-jwt",
		AccessToken: "expired",
	})
	assert.ErrorIs(t, err, ErrProfileUnavailable)
}

func TestDecodeIDToken(t *testing.T) {
	t.Run("MalformedToken", func(t *testing.T) {
		assert.Nil(t, decodeIDToken("garbage"))
	})

	t.Run("MissingSubject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"name": "No Sub"})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		assert.Nil(t, decodeIDToken(signed))
	})
}

func newTestMessagingClient(t *testing.T, srv *httptest.Server) *MessagingClient {
	t.Helper()
	rc, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(srv.Client()),
		retry.WithMaxRetries(1),
	)
	require.NoError(t, err)
	return NewMessagingClient("bot-secret", srv.Client(), rc, WithMessagingBaseURL(srv.URL))
}

func TestValidateSignature(t *testing.T) {
	mc := NewMessagingClient("bot-secret", nil, nil)
	body := []byte(`{"events":[]}`)

	mac := hmac.New(sha256.New, []byte("bot-secret"))
	mac.Write(body)
	valid := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, mc.ValidateSignature(body, valid))
	assert.False(t, mc.ValidateSignature(body, "tampered"))
	assert.False(t, mc.ValidateSignature(body, ""))
	assert.False(t, mc.ValidateSignature([]byte(`{"events":[{}]}`), valid))
}

func TestParseEvents(t *testing.T) {
	mc := NewMessagingClient("bot-secret", nil, nil)

	events, err := mc.ParseEvents([]byte(`{
		"destination": "Ubot",
		"events": [
			{
				"type": "message",
				"timestamp": 1700000000000,
				"replyToken": "rtok",
				"source": {"type": "user", "userId": "U1234"},
				"message": {"id": "m1", "type": "text", "text": "hello"}
			},
			{
				"type": "follow",
				"source": {"type": "user", "userId": "U5678"}
			}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeMessage, events[0].Type)
	assert.Equal(t, "U1234", events[0].Source.UserID)
	assert.Equal(t, "hello", events[0].Message.Text)
	assert.Equal(t, EventTypeFollow, events[1].Type)

	_, err = mc.ParseEvents([]byte(`not json`))
	assert.Error(t, err)
}

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, botProfilePath+"U1234", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"userId":"U1234","displayName":"Member","language":"ja"}`))
	}))
	defer srv.Close()

	mc := newTestMessagingClient(t, srv)

	profile, err := mc.GetProfile(context.Background(), "U1234")
	require.NoError(t, err)
	assert.Equal(t, "U1234", profile.LineUserID)
	assert.Equal(t, "Member", profile.DisplayName)
}

func TestReplyAndPush(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	mc := newTestMessagingClient(t, srv)

	require.NoError(t, mc.ReplyText(context.Background(), "rtok", "hi"))
	require.NoError(t, mc.PushText(context.Background(), "U1234", "your code is 123456"))
	assert.Equal(t, []string{botReplyPath, botPushPath}, paths)
}
