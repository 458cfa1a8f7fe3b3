package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"
	"github.com/tainyuhu/pin-server/internal/util"
)

const stateKeyPrefix = "line_state_"

// CallbackParams are the query parameters the provider redirect carries.
type CallbackParams struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// BindStatus describes a user's current LINE binding.
type BindStatus struct {
	IsBound     bool       `json:"is_bound"`
	LineUserID  string     `json:"line_user_id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	PictureURL  string     `json:"picture_url,omitempty"`
	BoundAt     *time.Time `json:"bound_at,omitempty"`
}

// LineLoginService orchestrates the login and account-binding flow: state
// issuance, callback handling, and unbinding.
type LineLoginService struct {
	config *config.Config
	store  *store.Store
	login  *line.LoginClient
	states cache.Cache[PendingAuthState]
	relay  *ResultRelay
	tokens *TokenService
}

// NewLineLoginService creates the orchestrator.
func NewLineLoginService(
	cfg *config.Config,
	s *store.Store,
	login *line.LoginClient,
	states cache.Cache[PendingAuthState],
	relay *ResultRelay,
	tokens *TokenService,
) *LineLoginService {
	return &LineLoginService{
		config: cfg,
		store:  s,
		login:  login,
		states: states,
		relay:  relay,
		tokens: tokens,
	}
}

// LoginURL issues an authorization URL and persists the pending state.
// Binding mode requires the id of the already-authenticated caller.
func (s *LineLoginService) LoginURL(
	ctx context.Context,
	mode, subjectID string,
) (string, error) {
	if mode != ModeBinding {
		mode = ModeLogin
	}
	if mode == ModeBinding && subjectID == "" {
		return "", ErrAuthRequired
	}

	state, err := util.CryptoRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := util.CryptoRandomString(32)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	pending := PendingAuthState{Mode: mode, Nonce: nonce}
	if mode == ModeBinding {
		pending.SubjectID = subjectID
	}
	err = s.states.Set(ctx, stateKeyPrefix+state, pending, s.config.AuthStateTTL)
	if err != nil {
		return "", fmt.Errorf("store auth state: %w", err)
	}

	return s.login.AuthURL(state, nonce), nil
}

// HandleCallback runs the callback half of the state machine and always
// produces a relay-able result, regardless of what failed. The browser is
// mid-redirect here, so an unhandled fault must never escape.
func (s *LineLoginService) HandleCallback(ctx context.Context, p CallbackParams) *Result {
	mode := ModeLogin
	res, err := s.runCallback(ctx, p, &mode)
	if err != nil {
		var fe *FlowError
		if !errors.As(err, &fe) {
			log.Printf("[LineLogin] unexpected callback failure: %v", err)
			fe = ErrUnexpected
		}
		return FailureResult(mode, fe)
	}
	return res
}

func (s *LineLoginService) runCallback(
	ctx context.Context,
	p CallbackParams,
	mode *string,
) (*Result, error) {
	if p.State == "" {
		return nil, ErrMissingState
	}

	// One-time consumption: the entry is gone even when a later step fails.
	pending, err := s.states.Take(ctx, stateKeyPrefix+p.State)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("consume auth state: %w", err)
	}
	*mode = pending.Mode

	if p.ErrorCode != "" {
		return nil, UpstreamError(p.ErrorCode, p.ErrorDescription)
	}
	if p.Code == "" {
		return nil, ErrAuthorizationCodeMissing
	}

	tokenSet, err := s.login.ExchangeCode(ctx, p.Code)
	if err != nil {
		var apiErr *line.APIError
		if errors.As(err, &apiErr) {
			return nil, UpstreamError(apiErr.Code, apiErr.Description)
		}
		return nil, UpstreamError("request_error", err.Error())
	}

	profile, err := s.login.ResolveProfile(ctx, tokenSet)
	if err != nil {
		return nil, ErrUserDataMissing
	}

	if pending.Mode == ModeBinding {
		return s.completeBinding(pending.SubjectID, profile)
	}
	return s.completeLogin(profile)
}

// completeLogin requires a pre-existing binding; login never creates one.
func (s *LineLoginService) completeLogin(profile *models.LineProfile) (*Result, error) {
	link, err := s.store.FindActiveLineUserByLineID(profile.LineUserID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrLineAccountNotBinded
		}
		return nil, ErrDatabase
	}
	if link.UserID == nil {
		// unbound placeholder from webhook traffic
		return nil, ErrLineAccountNotBinded
	}

	user, err := s.store.GetUserByID(*link.UserID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrLineAccountNotBinded
		}
		return nil, ErrDatabase
	}

	if err := s.store.UpdateLineUserProfile(link, profile); err != nil {
		return nil, ErrDatabase
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &Result{
		Success:      true,
		Mode:         ModeLogin,
		StatusCode:   http.StatusOK,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		UserID:       user.ID,
		Username:     user.Username,
		LineUserID:   profile.LineUserID,
		DisplayName:  profile.DisplayName,
		PictureURL:   profile.PictureURL,
	}, nil
}

func (s *LineLoginService) completeBinding(
	subjectID string,
	profile *models.LineProfile,
) (*Result, error) {
	if subjectID == "" {
		return nil, ErrAuthRequired
	}

	user, err := s.store.GetUserByID(subjectID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, ErrDatabase
	}

	// A binding only counts as new when no row for this LINE account ever
	// existed; claiming or reviving an existing row reports an update.
	isNew := false
	active, err := s.store.FindActiveLineUserByLineID(profile.LineUserID)
	switch {
	case err == nil && active.UserID != nil && *active.UserID != subjectID:
		return nil, ErrLineAccountAlreadyBinded

	case err == nil && active.UserID != nil:
		// already bound to this user; just refresh the profile
		if err := s.store.UpdateLineUserProfile(active, profile); err != nil {
			return nil, ErrDatabase
		}

	case err == nil:
		// unbound placeholder row: claim it
		if err := s.store.ReviveAndRelinkLineUser(active, subjectID, profile); err != nil {
			return nil, ErrDatabase
		}

	case errors.Is(err, store.ErrRecordNotFound):
		isNew, err = s.bindNewOrRevived(subjectID, profile)
		if err != nil {
			return nil, err
		}

	default:
		return nil, ErrDatabase
	}

	message := "LINE account bound successfully"
	if !isNew {
		message = "LINE account binding refreshed"
	}
	return &Result{
		Success:    true,
		Mode:       ModeBinding,
		StatusCode: http.StatusOK,
		Message:    message,
		User: &BindingUser{
			ID:           user.ID,
			Username:     user.Username,
			LineUserID:   profile.LineUserID,
			DisplayName:  profile.DisplayName,
			PictureURL:   profile.PictureURL,
			IsNewBinding: isNew,
		},
	}, nil
}

// bindNewOrRevived revives a soft-deleted row for the same LINE account
// when one exists, otherwise creates a fresh linked row. Only the fresh
// row counts as a new binding.
func (s *LineLoginService) bindNewOrRevived(
	subjectID string,
	profile *models.LineProfile,
) (isNew bool, err error) {
	latest, err := s.store.FindLatestLineUserByLineID(profile.LineUserID)
	switch {
	case err == nil:
		if err := s.store.ReviveAndRelinkLineUser(latest, subjectID, profile); err != nil {
			return false, ErrDatabase
		}
		return false, nil
	case errors.Is(err, store.ErrRecordNotFound):
		_, err := s.store.CreateLinkedLineUser(profile.LineUserID, subjectID, profile)
		if errors.Is(err, store.ErrLineAccountConflict) {
			return false, ErrLineAccountAlreadyBinded
		}
		if err != nil {
			return false, ErrDatabase
		}
		return true, nil
	default:
		return false, ErrDatabase
	}
}

// RelayResult stores a callback result and returns the frontend redirect
// URL carrying only the one-time token.
func (s *LineLoginService) RelayResult(ctx context.Context, res *Result) (string, error) {
	token, err := s.relay.StoreResult(ctx, res)
	if err != nil {
		return "", err
	}
	return s.relay.RedirectURL(s.config.FrontendURL, token, res.Mode), nil
}

// ExchangeTempToken consumes a one-time token for its stored payload.
func (s *LineLoginService) ExchangeTempToken(ctx context.Context, token string) (*Result, error) {
	if token == "" {
		return nil, ErrTempTokenMissing
	}
	return s.relay.Exchange(ctx, token)
}

// Unbind soft-deletes the caller's active binding and clears the mirror
// fields. Repeating the call reports not-found.
func (s *LineLoginService) Unbind(ctx context.Context, userID string) error {
	link, err := s.store.FindActiveLineUserByUserID(userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return ErrLineAccountNotFound
		}
		return ErrUnbind
	}
	if err := s.store.SoftUnlinkLineUser(link); err != nil {
		return ErrUnbind
	}
	return nil
}

// BindStatus reports whether a user currently has a LINE binding.
func (s *LineLoginService) BindStatus(ctx context.Context, userID string) (*BindStatus, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrLineAccountNotFound
		}
		return nil, ErrDatabase
	}

	link, err := s.store.FindActiveLineUserByUserID(userID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return &BindStatus{IsBound: false}, nil
		}
		return nil, ErrDatabase
	}

	return &BindStatus{
		IsBound:     true,
		LineUserID:  link.LineUserID,
		DisplayName: link.DisplayName,
		PictureURL:  link.PictureURL,
		BoundAt:     user.LineBindTime,
	}, nil
}
