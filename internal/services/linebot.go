package services

import (
	"context"
	"errors"
	"log"

	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"
)

const messageAckText = "We received your message. Thank you!"

// LineBotService processes Messaging API webhook events. It is independent
// of the login orchestrator and shares only the link repository: senders
// without a binding get an unbound placeholder row.
type LineBotService struct {
	store     *store.Store
	messaging *line.MessagingClient
	metrics   metrics.Recorder
}

// NewLineBotService creates a new webhook event processor.
func NewLineBotService(
	s *store.Store,
	messaging *line.MessagingClient,
	m metrics.Recorder,
) *LineBotService {
	return &LineBotService{store: s, messaging: messaging, metrics: m}
}

// HandleEvents processes one webhook delivery. Failures are logged per
// event and never abort the batch; the provider already got its 200.
func (s *LineBotService) HandleEvents(ctx context.Context, events []line.Event) {
	for _, ev := range events {
		if ev.Source.Type != "user" || ev.Source.UserID == "" {
			continue
		}
		if err := s.handleEvent(ctx, ev); err != nil {
			log.Printf("[LineBot] event %s for %s failed: %v", ev.Type, ev.Source.UserID, err)
		}
	}
}

func (s *LineBotService) handleEvent(ctx context.Context, ev line.Event) error {
	switch ev.Type {
	case line.EventTypeMessage:
		return s.handleMessage(ctx, ev)
	case line.EventTypeFollow:
		return s.handleFollow(ctx, ev)
	case line.EventTypeUnfollow:
		log.Printf("[LineBot] user %s unfollowed", ev.Source.UserID)
		return nil
	default:
		return nil
	}
}

// handleMessage records the inbound message, refreshes the sender's profile,
// and acknowledges with a reply. Refresh and reply are best effort: the
// message row and interaction timestamp land either way.
func (s *LineBotService) handleMessage(ctx context.Context, ev line.Event) error {
	link, err := s.resolveSender(ctx, ev.Source.UserID)
	if err != nil {
		return err
	}

	if ev.Message.Type == "text" && ev.Message.Text != "" {
		msg := &models.LineMessage{
			LineUserID:  link.ID,
			Message:     ev.Message.Text,
			MessageType: ev.Message.Type,
			IsOutbound:  false,
			Status:      models.MessageStatusDelivered,
		}
		if err := s.store.CreateLineMessage(msg); err != nil {
			s.metrics.RecordLineMessage("inbound", false)
			return err
		}
		s.metrics.RecordLineMessage("inbound", true)
	}

	if profile, perr := s.messaging.GetProfile(ctx, ev.Source.UserID); perr == nil {
		if uerr := s.store.UpdateLineUserProfile(link, profile); uerr != nil {
			log.Printf("[LineBot] profile refresh for %s failed: %v", ev.Source.UserID, uerr)
		}
	}

	if ev.ReplyToken != "" {
		if rerr := s.messaging.ReplyText(ctx, ev.ReplyToken, messageAckText); rerr != nil {
			log.Printf("[LineBot] message ack for %s failed: %v", ev.Source.UserID, rerr)
		}
	}
	return s.store.TouchLineUser(link)
}

// handleFollow refreshes the sender's profile and greets them.
func (s *LineBotService) handleFollow(ctx context.Context, ev line.Event) error {
	link, err := s.resolveSender(ctx, ev.Source.UserID)
	if err != nil {
		return err
	}

	if profile, perr := s.messaging.GetProfile(ctx, ev.Source.UserID); perr == nil {
		if uerr := s.store.UpdateLineUserProfile(link, profile); uerr != nil {
			log.Printf("[LineBot] profile refresh for %s failed: %v", ev.Source.UserID, uerr)
		}
	}

	if ev.ReplyToken != "" {
		if rerr := s.messaging.ReplyText(
			ctx, ev.ReplyToken, "Thanks for adding us! Bind your account to get started.",
		); rerr != nil {
			log.Printf("[LineBot] welcome reply for %s failed: %v", ev.Source.UserID, rerr)
		}
	}
	return s.store.TouchLineUser(link)
}

// resolveSender finds the active row for a sender, creating an unbound
// placeholder when none exists. The profile fill-in is best effort: an
// unreachable profile API still yields a usable row.
func (s *LineBotService) resolveSender(
	ctx context.Context,
	lineUserID string,
) (*models.LineUser, error) {
	link, err := s.store.FindActiveLineUserByLineID(lineUserID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	profile, perr := s.messaging.GetProfile(ctx, lineUserID)
	if perr != nil {
		log.Printf("[LineBot] profile fetch for %s failed: %v", lineUserID, perr)
		profile = &models.LineProfile{LineUserID: lineUserID}
	}
	return s.store.CreateUnboundLineUser(lineUserID, profile)
}
