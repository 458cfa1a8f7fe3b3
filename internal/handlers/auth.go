package handlers

import (
	"errors"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles password login and token refresh.
type AuthHandler struct {
	auth    *services.AuthService
	tokens  *services.TokenService
	metrics metrics.Recorder
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	auth *services.AuthService,
	tokens *services.TokenService,
	m metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{auth: auth, tokens: tokens, metrics: m}
}

// Login verifies a username/password pair and issues a credential pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&body); err != nil || body.Username == "" || body.Password == "" {
		respondValidation(c, "username and password are required")
		return
	}

	user, pair, err := h.auth.Authenticate(body.Username, body.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.RecordTokenIssued("access")
	h.metrics.RecordTokenIssued("refresh")

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user": gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"role":          user.Role,
			"name":          user.Name,
			"avatar":        user.Avatar,
			"is_line_bound": user.IsLineBound,
		},
	})
}

// Refresh trades a refresh token for a fresh credential pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var body struct {
		RefreshToken string `json:"refresh_token" form:"refresh_token"`
	}
	if err := c.ShouldBind(&body); err != nil || body.RefreshToken == "" {
		respondValidation(c, "refresh_token is required")
		return
	}

	pair, err := h.tokens.Refresh(body.RefreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidToken) || errors.Is(err, services.ErrExpiredToken) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid_token",
				"message": "refresh token is invalid or expired",
			})
			return
		}
		respondError(c, err)
		return
	}
	h.metrics.RecordTokenIssued("access")
	h.metrics.RecordTokenIssued("refresh")

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
	})
}
