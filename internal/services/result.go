package services

// Flow modes. The mode travels with the pending state and the relayed
// result so the frontend lands on the right screen.
const (
	ModeLogin   = "login"
	ModeBinding = "binding"
)

// PendingAuthState is the server-side record behind an issued authorization
// URL. Consumed exactly once when the provider redirects back.
type PendingAuthState struct {
	Mode      string `json:"mode"`
	Nonce     string `json:"nonce"`
	SubjectID string `json:"subject_id,omitempty"`
}

// BindingUser is the nested user block of a successful binding result.
type BindingUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	LineUserID   string `json:"line_user_id"`
	DisplayName  string `json:"display_name"`
	PictureURL   string `json:"picture_url"`
	IsNewBinding bool   `json:"is_new_binding"`
}

// Result is the payload relayed to the frontend through a one-time temp
// token. Login success carries the flattened session fields; binding
// success carries the nested user block; failures carry error and message.
type Result struct {
	Success    bool   `json:"success"`
	Mode       string `json:"mode"`
	StatusCode int    `json:"status_code"`

	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`

	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Username     string `json:"username,omitempty"`
	LineUserID   string `json:"line_user_id,omitempty"`
	DisplayName  string `json:"display_name,omitempty"`
	PictureURL   string `json:"picture_url,omitempty"`

	User *BindingUser `json:"user,omitempty"`
}

// FailureResult converts a flow error into a relay-able payload.
func FailureResult(mode string, fe *FlowError) *Result {
	return &Result{
		Success:    false,
		Mode:       mode,
		StatusCode: fe.Status,
		Error:      fe.Code,
		Message:    fe.Message,
	}
}
