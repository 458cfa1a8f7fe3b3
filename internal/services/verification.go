package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"

	"golang.org/x/crypto/bcrypt"
)

const verifyCodeKeyPrefix = "verify_code_"

// VerificationCodeIssuer issues and validates short-lived one-time codes.
type VerificationCodeIssuer interface {
	Issue(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, userID, code string) error
}

// CacheCodeIssuer keeps 6-digit codes in the state store with a TTL. A code
// survives failed attempts until it expires, but is consumed on success.
type CacheCodeIssuer struct {
	codes cache.Cache[string]
	ttl   time.Duration
}

// NewCacheCodeIssuer creates a cache-backed issuer.
func NewCacheCodeIssuer(codes cache.Cache[string], ttl time.Duration) *CacheCodeIssuer {
	return &CacheCodeIssuer{codes: codes, ttl: ttl}
}

// Issue generates a fresh 6-digit code, replacing any outstanding one.
func (i *CacheCodeIssuer) Issue(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := i.codes.Set(ctx, verifyCodeKeyPrefix+userID, code, i.ttl); err != nil {
		return "", fmt.Errorf("store verification code: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code and deletes it on success.
func (i *CacheCodeIssuer) Verify(ctx context.Context, userID, code string) error {
	stored, err := i.codes.Get(ctx, verifyCodeKeyPrefix+userID)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrVerificationCodeInvalid
		}
		return fmt.Errorf("read verification code: %w", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return ErrVerificationCodeInvalid
	}
	return i.codes.Delete(ctx, verifyCodeKeyPrefix+userID)
}

// PasswordResetService delivers reset codes over LINE and applies verified
// password changes. Only users with an active binding can reset this way.
type PasswordResetService struct {
	store     *store.Store
	codes     VerificationCodeIssuer
	messaging *line.MessagingClient
	metrics   metrics.Recorder
}

// NewPasswordResetService creates a new password reset service
func NewPasswordResetService(
	s *store.Store,
	codes VerificationCodeIssuer,
	messaging *line.MessagingClient,
	m metrics.Recorder,
) *PasswordResetService {
	return &PasswordResetService{store: s, codes: codes, messaging: messaging, metrics: m}
}

// RequestCode issues a code for a user and pushes it to their bound LINE
// account. Unknown users and unbound users report the same failure.
func (s *PasswordResetService) RequestCode(ctx context.Context, username string) error {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrLineAccountNotFound
		}
		return err
	}

	link, err := s.store.FindActiveLineUserByUserID(user.ID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrLineAccountNotFound
		}
		return err
	}

	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Your password reset verification code is %s.", code)
	msg := &models.LineMessage{
		LineUserID: link.ID,
		Message:    text,
		IsOutbound: true,
	}
	if err := s.store.CreateLineMessage(msg); err != nil {
		log.Printf("[PasswordReset] failed to record outbound message: %v", err)
	}

	if err := s.messaging.PushText(ctx, link.LineUserID, text); err != nil {
		s.metrics.RecordLineMessage("outbound", false)
		if msg.ID != "" {
			if uerr := s.store.UpdateLineMessageStatus(
				msg.ID, models.MessageStatusFailed, err.Error(),
			); uerr != nil {
				log.Printf("[PasswordReset] failed to record delivery failure: %v", uerr)
			}
		}
		return fmt.Errorf("deliver verification code: %w", err)
	}
	s.metrics.RecordLineMessage("outbound", true)
	if msg.ID != "" {
		if uerr := s.store.UpdateLineMessageStatus(
			msg.ID, models.MessageStatusSent, "",
		); uerr != nil {
			log.Printf("[PasswordReset] failed to record delivery: %v", uerr)
		}
	}
	return nil
}

// Reset applies a new password after validating the verification code.
func (s *PasswordResetService) Reset(
	ctx context.Context,
	username, code, newPassword string,
) error {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrVerificationCodeInvalid
		}
		return err
	}

	if err := s.codes.Verify(ctx, user.ID, code); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdateUserPassword(user.ID, string(hash))
}
