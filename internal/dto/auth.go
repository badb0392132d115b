package dto

// LoginRequest carries the shared password for either role. Accepted as JSON or form.
type LoginRequest struct {
	Password string `form:"password" json:"password" validate:"required"`
}

// LogoutRequest names the role being logged out. The whole session is destroyed regardless.
type LogoutRequest struct {
	Type string `form:"type" json:"type"`
}
