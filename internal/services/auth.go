package services

import (
	"errors"

	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles password-based authentication.
type AuthService struct {
	store  *store.Store
	tokens *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(s *store.Store, tokens *TokenService) *AuthService {
	return &AuthService{store: s, tokens: tokens}
}

// Authenticate verifies a username/password pair and issues a credential
// pair. Unknown users and wrong passwords report the same failure.
func (s *AuthService) Authenticate(username, password string) (*models.User, *TokenPair, error) {
	user, err := s.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}
