package client

import (
	"fmt"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/config"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// NewLoginHTTPClient builds the HTTP client for the LINE Login endpoints.
// The token and profile requests carry their own credentials, so the client
// itself attaches nothing.
func NewLoginHTTPClient(cfg *config.Config) (*http.Client, error) {
	c, err := httpclient.NewAuthClient(
		"none",
		"",
		httpclient.WithTimeout(cfg.LineHTTPTimeout),
		httpclient.WithInsecureSkipVerify(cfg.LineHTTPInsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login http client: %w", err)
	}
	return c, nil
}

// NewMessagingClients builds the HTTP clients for the LINE Messaging API.
// Every request carries the channel access token. The retry wrapper is used
// for message delivery so transient failures are retried with backoff.
func NewMessagingClients(cfg *config.Config) (*http.Client, *retry.Client, error) {
	c, err := httpclient.NewAuthClient(
		"simple",
		"Bearer "+cfg.LineBotAccessToken,
		httpclient.WithTimeout(cfg.LineHTTPTimeout),
		httpclient.WithHeaderName("Authorization"),
		httpclient.WithInsecureSkipVerify(cfg.LineHTTPInsecureSkipVerify),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create messaging http client: %w", err)
	}

	retryClient, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(c),
		retry.WithMaxRetries(cfg.LineHTTPMaxRetries),
		retry.WithInitialRetryDelay(cfg.LineHTTPRetryDelay),
		retry.WithMaxRetryDelay(cfg.LineHTTPMaxRetryDelay),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create retry client: %w", err)
	}

	return c, retryClient, nil
}
