package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/middleware"
	"github.com/tainyuhu/pin-server/internal/services"

	"github.com/gin-gonic/gin"
)

// LineLoginHandler exposes the login/binding flow over HTTP.
type LineLoginHandler struct {
	svc     *services.LineLoginService
	metrics metrics.Recorder
}

// NewLineLoginHandler creates a new LINE login handler
func NewLineLoginHandler(svc *services.LineLoginService, m metrics.Recorder) *LineLoginHandler {
	return &LineLoginHandler{svc: svc, metrics: m}
}

// LoginURL issues an authorization URL. Binding mode requires the caller to
// be authenticated; login mode is anonymous.
func (h *LineLoginHandler) LoginURL(c *gin.Context) {
	mode := c.DefaultQuery("mode", services.ModeLogin)
	if mode != services.ModeLogin && mode != services.ModeBinding {
		respondValidation(c, "mode must be login or binding")
		return
	}

	loginURL, err := h.svc.LoginURL(c.Request.Context(), mode, middleware.CallerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.RecordLoginURLIssued(mode)
	c.JSON(http.StatusOK, gin.H{"login_url": loginURL, "mode": mode})
}

// callbackParams pulls the provider parameters out of the request. LINE
// redirects with a GET query string, but the same endpoint accepts a POST
// with form or JSON fields for clients relaying the parameters themselves.
func callbackParams(c *gin.Context) services.CallbackParams {
	get := func(key string) string {
		if v := c.Query(key); v != "" {
			return v
		}
		return c.PostForm(key)
	}
	p := services.CallbackParams{
		Code:             get("code"),
		State:            get("state"),
		ErrorCode:        get("error"),
		ErrorDescription: get("error_description"),
	}
	if p.Code == "" && p.State == "" && p.ErrorCode == "" &&
		c.ContentType() == "application/json" {
		var body struct {
			Code             string `json:"code"`
			State            string `json:"state"`
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if err := c.ShouldBindJSON(&body); err == nil {
			p.Code = body.Code
			p.State = body.State
			p.ErrorCode = body.Error
			p.ErrorDescription = body.ErrorDescription
		}
	}
	return p
}

// Callback handles the provider redirect. The outcome, success or failure,
// always travels to the frontend as a one-time temp token; the browser only
// ever sees a redirect.
func (h *LineLoginHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	result := h.svc.HandleCallback(ctx, callbackParams(c))
	outcome := "success"
	if !result.Success {
		outcome = result.Error
	}
	h.metrics.RecordCallback(result.Mode, outcome)

	redirect, err := h.svc.RelayResult(ctx, result)
	if err != nil {
		// relay store down: nothing left to redirect with
		log.Printf("[LineLogin] failed to relay callback result: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "unexpected_error",
			"message": "failed to store login result",
		})
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// ExchangeTempToken trades a one-time token for the stored result payload.
// The HTTP status mirrors the payload's embedded status code.
func (h *LineLoginHandler) ExchangeTempToken(c *gin.Context) {
	var body struct {
		TempToken string `json:"temp_token" form:"temp_token"`
	}
	_ = c.ShouldBind(&body)

	result, err := h.svc.ExchangeTempToken(c.Request.Context(), body.TempToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTempTokenMissing):
			h.metrics.RecordTempTokenExchange("missing")
		case errors.Is(err, services.ErrTempTokenInvalid):
			h.metrics.RecordTempTokenExchange("invalid")
		}
		respondError(c, err)
		return
	}
	h.metrics.RecordTempTokenExchange("success")
	c.JSON(result.StatusCode, result)
}

// Unbind detaches the caller's LINE account.
func (h *LineLoginHandler) Unbind(c *gin.Context) {
	err := h.svc.Unbind(c.Request.Context(), middleware.CallerID(c))
	if err != nil {
		h.metrics.RecordUnbind(false)
		respondError(c, err)
		return
	}
	h.metrics.RecordUnbind(true)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "LINE account unbound successfully",
	})
}

// BindStatus reports a user's binding state. Callers may query themselves;
// admins may query anyone.
func (h *LineLoginHandler) BindStatus(c *gin.Context) {
	targetID := c.Param("id")
	callerID := middleware.CallerID(c)
	if targetID == "" {
		targetID = callerID
	}
	if targetID != callerID && middleware.CallerRole(c) != "admin" {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   "forbidden",
			"message": "cannot query another user's binding",
		})
		return
	}

	status, err := h.svc.BindStatus(c.Request.Context(), targetID)
	if err != nil {
		if errors.Is(err, services.ErrLineAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error":   "not_found",
				"message": "user not found",
			})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}
