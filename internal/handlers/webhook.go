package handlers

import (
	"log"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives Messaging API deliveries. It always acknowledges
// with 200 so the platform never enters a redelivery storm; business
// failures are logged, not reported.
type WebhookHandler struct {
	messaging *line.MessagingClient
	bot       *services.LineBotService
	metrics   metrics.Recorder
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	messaging *line.MessagingClient,
	bot *services.LineBotService,
	m metrics.Recorder,
) *WebhookHandler {
	return &WebhookHandler{messaging: messaging, bot: bot, metrics: m}
}

// Receive validates the signature and processes the event batch.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		log.Printf("[Webhook] failed to read body: %v", err)
		c.JSON(http.StatusOK, gin.H{"message": "OK"})
		return
	}

	signature := c.GetHeader("X-Line-Signature")
	if !h.messaging.ValidateSignature(body, signature) {
		log.Printf("[Webhook] invalid signature from %s", c.ClientIP())
		h.metrics.RecordWebhook(false, 0)
		c.JSON(http.StatusOK, gin.H{"message": "OK"})
		return
	}

	events, err := h.messaging.ParseEvents(body)
	if err != nil {
		log.Printf("[Webhook] failed to parse events: %v", err)
		h.metrics.RecordWebhook(true, 0)
		c.JSON(http.StatusOK, gin.H{"message": "OK"})
		return
	}

	h.metrics.RecordWebhook(true, len(events))
	h.bot.HandleEvents(c.Request.Context(), events)
	c.JSON(http.StatusOK, gin.H{"message": "OK"})
}
