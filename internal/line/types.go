package line

import "fmt"

// LINE platform endpoints.
const (
	DefaultAuthBaseURL = "https://access.line.me"
	DefaultAPIBaseURL  = "https://api.line.me"

	authorizePath  = "/oauth2/v2.1/authorize"
	tokenPath      = "/oauth2/v2.1/token"
	profilePath    = "/v2/profile"
	botProfilePath = "/v2/bot/profile/"
	botReplyPath   = "/v2/bot/message/reply"
	botPushPath    = "/v2/bot/message/push"
)

// TokenSet is the result of exchanging an authorization code.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// APIError is a non-2xx response from a LINE endpoint.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("line api: %s (%s, HTTP %d)", e.Description, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("line api: HTTP %d", e.StatusCode)
}

// Event is one entry of a webhook delivery.
type Event struct {
	Type       string       `json:"type"`
	Timestamp  int64        `json:"timestamp"`
	ReplyToken string       `json:"replyToken"`
	Source     EventSource  `json:"source"`
	Message    EventMessage `json:"message"`
}

// EventSource identifies the sender of a webhook event.
type EventSource struct {
	Type    string `json:"type"`
	UserID  string `json:"userId"`
	GroupID string `json:"groupId"`
	RoomID  string `json:"roomId"`
}

// EventMessage is the message payload of a message event.
type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// Webhook event types this service reacts to.
const (
	EventTypeMessage  = "message"
	EventTypeFollow   = "follow"
	EventTypeUnfollow = "unfollow"
)
