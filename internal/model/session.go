package model

// SessionUser is the identity carried by a session token.
type SessionUser struct {
	ID       string `json:"userId"`
	Email    string `json:"email"`
	Username string `json:"username"`
}
