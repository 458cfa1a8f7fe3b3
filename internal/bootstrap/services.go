package bootstrap

import (
	"github.com/tainyuhu/pin-server/internal/cache"
	"github.com/tainyuhu/pin-server/internal/config"
	"github.com/tainyuhu/pin-server/internal/line"
	"github.com/tainyuhu/pin-server/internal/metrics"
	"github.com/tainyuhu/pin-server/internal/services"
	"github.com/tainyuhu/pin-server/internal/store"
)

// initializeServices creates all business services with their dependencies
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	loginClient *line.LoginClient,
	messagingClient *line.MessagingClient,
	stateCache cache.Cache[services.PendingAuthState],
	resultCache cache.Cache[services.Result],
	codeCache cache.Cache[string],
	recorder metrics.Recorder,
) (
	*services.TokenService,
	*services.AuthService,
	*services.LineLoginService,
	*services.LineBotService,
	*services.PasswordResetService,
) {
	tokenService := services.NewTokenService(cfg, db)
	authService := services.NewAuthService(db, tokenService)

	relay := services.NewResultRelay(resultCache, cfg.TempTokenTTL)
	lineLoginService := services.NewLineLoginService(
		cfg, db, loginClient, stateCache, relay, tokenService,
	)

	var botService *services.LineBotService
	var passwordReset *services.PasswordResetService
	if messagingClient != nil {
		botService = services.NewLineBotService(db, messagingClient, recorder)
		codes := services.NewCacheCodeIssuer(codeCache, cfg.VerificationCodeTTL)
		passwordReset = services.NewPasswordResetService(db, codes, messagingClient, recorder)
	}

	return tokenService, authService, lineLoginService, botService, passwordReset
}
