package line

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	retry "github.com/appleboy/go-httpretry"
	"github.com/tainyuhu/pin-server/internal/models"
)

// MessagingClient talks to the LINE Messaging API channel: webhook
// signature validation, member profiles, and message delivery.
type MessagingClient struct {
	channelSecret string
	httpClient    *http.Client
	retryClient   *retry.Client
	apiBase       string
}

// MessagingOption customizes a MessagingClient.
type MessagingOption func(*MessagingClient)

// WithMessagingBaseURL overrides the LINE API endpoint. Used in tests.
func WithMessagingBaseURL(apiBase string) MessagingOption {
	return func(mc *MessagingClient) { mc.apiBase = apiBase }
}

// NewMessagingClient creates a client for the configured Messaging API
// channel. The retry client handles message delivery; the plain client
// handles profile reads.
func NewMessagingClient(
	channelSecret string,
	httpClient *http.Client,
	retryClient *retry.Client,
	opts ...MessagingOption,
) *MessagingClient {
	mc := &MessagingClient{
		channelSecret: channelSecret,
		httpClient:    httpClient,
		retryClient:   retryClient,
		apiBase:       DefaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

// ValidateSignature checks the X-Line-Signature header against the raw
// webhook body. The signature is HMAC-SHA256 over the body with the channel
// secret, base64 encoded.
func (mc *MessagingClient) ValidateSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(mc.channelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEvents decodes a webhook delivery body.
func (mc *MessagingClient) ParseEvents(body []byte) ([]Event, error) {
	var wire struct {
		Destination string  `json:"destination"`
		Events      []Event `json:"events"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("line: webhook decode: %w", err)
	}
	return wire.Events, nil
}

// GetProfile fetches the bot-scoped profile of a channel member.
func (mc *MessagingClient) GetProfile(
	ctx context.Context,
	lineUserID string,
) (*models.LineProfile, error) {
	url := mc.apiBase + botProfilePath + lineUserID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := mc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("line: bot profile request: %w", err)
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
		Language      string `json:"language"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("line: bot profile decode: %w", err)
	}
	return &models.LineProfile{
		LineUserID:    wire.UserID,
		DisplayName:   wire.DisplayName,
		PictureURL:    wire.PictureURL,
		StatusMessage: wire.StatusMessage,
	}, nil
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ReplyText answers a webhook event using its reply token.
func (mc *MessagingClient) ReplyText(ctx context.Context, replyToken, text string) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   []textMessage{{Type: "text", Text: text}},
	}
	return mc.postMessage(ctx, mc.apiBase+botReplyPath, payload)
}

// PushText sends a message to a channel member outside a reply window.
func (mc *MessagingClient) PushText(ctx context.Context, lineUserID, text string) error {
	payload := map[string]any{
		"to":       lineUserID,
		"messages": []textMessage{{Type: "text", Text: text}},
	}
	return mc.postMessage(ctx, mc.apiBase+botPushPath, payload)
}

func (mc *MessagingClient) postMessage(ctx context.Context, url string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("line: marshal message: %w", err)
	}

	resp, err := mc.retryClient.Post(
		ctx,
		url,
		retry.WithBody("application/json", bytes.NewBuffer(jsonData)),
	)
	if err != nil {
		return fmt.Errorf("line: message delivery: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Description: string(body)}
	}
	return nil
}
