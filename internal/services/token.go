package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/models"
	"github.com/tainyuhu/pin-server/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is a freshly issued session credential pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SessionClaims are the validated claims of an access or refresh token.
type SessionClaims struct {
	UserID    string
	Username  string
	Role      string
	TokenType string
	ExpiresAt time.Time
}

// TokenService issues and validates the JWT session credentials handed out
// after a successful login.
type TokenService struct {
	config *config.Config
	store  *store.Store
}

// NewTokenService creates a new token service
func NewTokenService(cfg *config.Config, s *store.Store) *TokenService {
	return &TokenService{config: cfg, store: s}
}

// generateJWT creates a signed JWT token with the given claims and expiration
func (s *TokenService) generateJWT(
	user *models.User,
	tokenType string,
	expiresAt time.Time,
) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"type":     tokenType,
		"exp":      expiresAt.Unix(),
		"iat":      time.Now().Unix(),
		"iss":      s.config.BaseURL,
		"sub":      user.ID,
		"jti":      uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssuePair creates an access/refresh credential pair for a user.
func (s *TokenService) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := s.generateJWT(user, tokenTypeAccess, time.Now().Add(s.config.JWTExpiration))
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateJWT(
		user,
		tokenTypeRefresh,
		time.Now().Add(s.config.RefreshTokenExpiration),
	)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.config.JWTExpiration.Seconds()),
	}, nil
}

// parse verifies the signature and expiry of a token of the expected type.
func (s *TokenService) parse(tokenString, expectedType string) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenType, _ := claims["type"].(string)
	if tokenType != expectedType {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &SessionClaims{
		UserID:    userID,
		Username:  username,
		Role:      role,
		TokenType: tokenType,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// Validate verifies an access token.
func (s *TokenService) Validate(tokenString string) (*SessionClaims, error) {
	return s.parse(tokenString, tokenTypeAccess)
}

// Refresh trades a valid refresh token for a fresh credential pair. The
// user is re-read so revoked or deleted accounts stop refreshing.
func (s *TokenService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.IssuePair(user)
}
