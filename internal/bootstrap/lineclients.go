package bootstrap

import (
	"fmt"
	"log"

	"github.com/tainyuhu/pin-server/internal/client"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/line"
)

// initializeLineClients builds the outbound clients for the two LINE
// channels. The login client always exists; the messaging client is nil
// when the bot channel is not configured, and every consumer tolerates
// that.
func initializeLineClients(
	cfg *config.Config,
) (*line.LoginClient, *line.MessagingClient, error) {
	loginHTTP, err := client.NewLoginHTTPClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LINE login HTTP client: %w", err)
	}
	loginClient := line.NewLoginClient(cfg, line.WithLoginHTTPClient(loginHTTP))
	log.Printf("LINE Login channel configured (channel_id=%s)", cfg.LineLoginChannelID)

	if cfg.LineBotAccessToken == "" {
		return loginClient, nil, nil
	}

	botHTTP, botRetry, err := client.NewMessagingClients(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LINE messaging clients: %w", err)
	}
	messagingClient := line.NewMessagingClient(cfg.LineBotChannelSecret, botHTTP, botRetry)
	log.Println("LINE Messaging channel configured")

	return loginClient, messagingClient, nil
}
