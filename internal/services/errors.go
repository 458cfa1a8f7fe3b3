package services

import "net/http"

// FlowError is a typed failure of the login/binding flow. Every failure the
// orchestrator can produce maps to exactly one code, so the frontend can
// branch on it and the HTTP layer can mirror the status.
type FlowError struct {
	Code    string
	Message string
	Status  int
}

func (e *FlowError) Error() string {
	return e.Code + ": " + e.Message
}

// Closed set of flow failures. Provider-reported errors are the only open
// variant, relayed verbatim via UpstreamError.
var (
	ErrMissingState = &FlowError{
		Code:    "missing_state",
		Message: "state parameter is missing",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidState = &FlowError{
		Code:    "invalid_state",
		Message: "state is invalid or expired",
		Status:  http.StatusBadRequest,
	}
	ErrAuthorizationCodeMissing = &FlowError{
		Code:    "authorization_code_missing",
		Message: "authorization code is missing",
		Status:  http.StatusBadRequest,
	}
	ErrUserDataMissing = &FlowError{
		Code:    "user_data_missing",
		Message: "unable to resolve user profile from provider",
		Status:  http.StatusBadRequest,
	}
	ErrAuthRequired = &FlowError{
		Code:    "auth_required",
		Message: "authentication required for binding",
		Status:  http.StatusUnauthorized,
	}
	ErrUserNotFound = &FlowError{
		Code:    "user_not_found",
		Message: "user not found",
		Status:  http.StatusNotFound,
	}
	ErrLineAccountNotBinded = &FlowError{
		Code:    "line_account_not_binded",
		Message: "this LINE account is not bound to any user",
		Status:  http.StatusNotFound,
	}
	ErrLineAccountAlreadyBinded = &FlowError{
		Code:    "line_account_already_binded",
		Message: "this LINE account is already bound to another user",
		Status:  http.StatusBadRequest,
	}
	ErrLineAccountNotFound = &FlowError{
		Code:    "line_account_not_found",
		Message: "no bound LINE account found",
		Status:  http.StatusNotFound,
	}
	ErrUnbind = &FlowError{
		Code:    "unbind_error",
		Message: "failed to unbind LINE account",
		Status:  http.StatusInternalServerError,
	}
	ErrDatabase = &FlowError{
		Code:    "database_error",
		Message: "database operation failed",
		Status:  http.StatusInternalServerError,
	}
	ErrUnexpected = &FlowError{
		Code:    "unexpected_error",
		Message: "an unexpected error occurred",
		Status:  http.StatusInternalServerError,
	}
	ErrTempTokenMissing = &FlowError{
		Code:    "temporary_token_missing",
		Message: "temp_token is required",
		Status:  http.StatusBadRequest,
	}
	ErrTempTokenInvalid = &FlowError{
		Code:    "temporary_token_invalid_or_expired",
		Message: "temporary token is invalid or expired",
		Status:  http.StatusBadRequest,
	}
	ErrInvalidCredentials = &FlowError{
		Code:    "invalid_credentials",
		Message: "invalid username or password",
		Status:  http.StatusUnauthorized,
	}
	ErrVerificationCodeInvalid = &FlowError{
		Code:    "verification_code_invalid",
		Message: "verification code is invalid or expired",
		Status:  http.StatusBadRequest,
	}
)

// UpstreamError relays a provider-reported failure. The code and description
// pass through verbatim so the frontend sees what LINE reported.
func UpstreamError(code, message string) *FlowError {
	if code == "" {
		code = "request_error"
	}
	if message == "" {
		message = "provider request failed"
	}
	return &FlowError{Code: code, Message: message, Status: http.StatusBadRequest}
}
