package dto

// LoginRequest authenticates a user with email and password.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MagicLinkRequest asks for a one-time login link for the given user.
type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// MagicLinkResponse returns the generated one-time login link.
type MagicLinkResponse struct {
	MagicLink string `json:"magic_link"`
}
