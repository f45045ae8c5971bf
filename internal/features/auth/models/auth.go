package models

// LoginRequest accepts an OAuth2 password form (username=email) or JSON.
type LoginRequest struct {
	Email    string `json:"email" form:"username" binding:"required" example:"john.doe@example.com"`
	Password string `json:"password" form:"password" binding:"required" example:"Secure*1234"`
}

type TelegramLoginRequest struct {
	// InitData is the raw Telegram Mini App init data query string.
	InitData string `json:"init_data" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"bearer"`
}
