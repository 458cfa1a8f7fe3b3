package handlers

import (
	"net/http"

	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// PasswordResetHandler handles LINE-delivered password reset codes.
type PasswordResetHandler struct {
	svc *services.PasswordResetService
}

// NewPasswordResetHandler creates a new password reset handler
func NewPasswordResetHandler(svc *services.PasswordResetService) *PasswordResetHandler {
	return &PasswordResetHandler{svc: svc}
}

// RequestCode issues a verification code and pushes it over LINE.
func (h *PasswordResetHandler) RequestCode(c *gin.Context) {
	var body struct {
		Username string `json:"username" form:"username"`
	}
	if err := c.ShouldBind(&body); err != nil || body.Username == "" {
		respondValidation(c, "username is required")
		return
	}

	if err := h.svc.RequestCode(c.Request.Context(), body.Username); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "verification code sent to your LINE account",
	})
}

// Verify applies a new password after checking the verification code.
func (h *PasswordResetHandler) Verify(c *gin.Context) {
	var body struct {
		Username    string `json:"username" form:"username"`
		Code        string `json:"code" form:"code"`
		NewPassword string `json:"new_password" form:"new_password"`
	}
	if err := c.ShouldBind(&body); err != nil ||
		body.Username == "" || body.Code == "" || body.NewPassword == "" {
		respondValidation(c, "username, code and new_password are required")
		return
	}
	if len(body.NewPassword) < 8 {
		respondValidation(c, "new_password must be at least 8 characters")
		return
	}

	err := h.svc.Reset(c.Request.Context(), body.Username, body.Code, body.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "password updated successfully",
	})
}
