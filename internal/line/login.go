package line

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrProfileUnavailable means neither the id_token nor the profile API
// yielded a usable identity.
var ErrProfileUnavailable = errors.New("line: profile unavailable")

// LoginClient talks to the LINE Login channel: authorization URL
// construction, code exchange, and profile resolution.
type LoginClient struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	apiBase    string
}

// LoginOption customizes a LoginClient.
type LoginOption func(*LoginClient)

// WithLoginHTTPClient sets the HTTP client used for the token and profile
// endpoints.
func WithLoginHTTPClient(c *http.Client) LoginOption {
	return func(lc *LoginClient) { lc.httpClient = c }
}

// WithLoginBaseURLs overrides the LINE endpoints. Used in tests.
func WithLoginBaseURLs(authBase, apiBase string) LoginOption {
	return func(lc *LoginClient) {
		lc.oauth.Endpoint = oauth2.Endpoint{
			AuthURL:  authBase + authorizePath,
			TokenURL: apiBase + tokenPath,
		}
		lc.apiBase = apiBase
	}
}

// NewLoginClient creates a client for the configured LINE Login channel.
func NewLoginClient(cfg *config.Config, opts ...LoginOption) *LoginClient {
	lc := &LoginClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.LineLoginChannelID,
			ClientSecret: cfg.LineLoginChannelSecret,
			RedirectURL:  cfg.LineLoginCallbackURL,
			Scopes:       cfg.LineLoginScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  DefaultAuthBaseURL + authorizePath,
				TokenURL: DefaultAPIBaseURL + tokenPath,
			},
		},
		httpClient: http.DefaultClient,
		apiBase:    DefaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(lc)
	}
	return lc
}

// AuthURL builds the authorization URL for a login attempt. The nonce binds
// the eventual id_token to this attempt.
func (lc *LoginClient) AuthURL(state, nonce string) string {
	return lc.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// ExchangeCode trades an authorization code for tokens. Provider rejections
// surface as *APIError; transport failures pass through unwrapped.
func (lc *LoginClient) ExchangeCode(ctx context.Context, code string) (*TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, lc.httpClient)

	token, err := lc.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return nil, &APIError{
				StatusCode:  re.Response.StatusCode,
				Code:        re.ErrorCode,
				Description: re.ErrorDescription,
			}
		}
		return nil, fmt.Errorf("line: token exchange: %w", err)
	}

	ts := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		ts.Scope = scope
	}
	if expiresIn, ok := token.Extra("expires_in").(float64); ok {
		ts.ExpiresIn = int64(expiresIn)
	}
	return ts, nil
}

// ResolveProfile extracts the user's identity from the token set. The
// id_token claims are preferred; when absent or unreadable the profile API
// is queried with the access token. The id_token signature is not checked
// here: the token arrived over TLS directly from the token endpoint, so the
// claims are trusted as-is.
func (lc *LoginClient) ResolveProfile(
	ctx context.Context,
	ts *TokenSet,
) (*models.LineProfile, error) {
	if ts.IDToken != "" {
		if profile := decodeIDToken(ts.IDToken); profile != nil {
			return profile, nil
		}
	}
	if ts.AccessToken != "" {
		profile, err := lc.fetchProfile(ctx, ts.AccessToken)
		if err == nil {
			return profile, nil
		}
	}
	return nil, ErrProfileUnavailable
}

// decodeIDToken reads the claims without verifying the signature. Returns
// nil when the token is malformed or carries no subject.
func decodeIDToken(idToken string) *models.LineProfile {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(idToken, claims)
	if err != nil {
		return nil
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	email, _ := claims["email"].(string)
	return &models.LineProfile{
		LineUserID:  sub,
		DisplayName: name,
		PictureURL:  picture,
		Email:       email,
	}
}

// fetchProfile queries the LINE profile API with the user's access token.
func (lc *LoginClient) fetchProfile(
	ctx context.Context,
	accessToken string,
) (*models.LineProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lc.apiBase+profilePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := lc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line: profile request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Description: string(body)}
	}

	var wire struct {
		UserID        string `json:"userId"`
		DisplayName   string `json:"displayName"`
		PictureURL    string `json:"pictureUrl"`
		StatusMessage string `json:"statusMessage"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("line: profile decode: %w", err)
	}
	if wire.UserID == "" {
		return nil, ErrProfileUnavailable
	}
	return &models.LineProfile{
		LineUserID:    wire.UserID,
		DisplayName:   wire.DisplayName,
		PictureURL:    wire.PictureURL,
		StatusMessage: wire.StatusMessage,
	}, nil
}
