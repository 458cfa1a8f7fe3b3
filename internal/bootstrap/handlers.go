package bootstrap

import (
	"github.com/tainyuhu/pin-server/internal/handlers"
	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"
)

// handlerSet groups all HTTP handlers. Handlers for the bot channel stay
// nil when the channel is not configured and their routes are not mounted.
type handlerSet struct {
	auth          *handlers.AuthHandler
	lineLogin     *handlers.LineLoginHandler
	webhook       *handlers.WebhookHandler
	passwordReset *handlers.PasswordResetHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	tokenService *services.TokenService,
	authService *services.AuthService,
	lineLoginService *services.LineLoginService,
	botService *services.LineBotService,
	passwordReset *services.PasswordResetService,
	messagingClient *line.MessagingClient,
	recorder metrics.Recorder,
) handlerSet {
	h := handlerSet{
		auth:      handlers.NewAuthHandler(authService, tokenService, recorder),
		lineLogin: handlers.NewLineLoginHandler(lineLoginService, recorder),
	}

	if messagingClient != nil {
		h.webhook = handlers.NewWebhookHandler(messagingClient, botService, recorder)
	}
	if passwordReset != nil {
		h.passwordReset = handlers.NewPasswordResetHandler(passwordReset)
	}

	return h
}
