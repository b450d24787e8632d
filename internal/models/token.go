package models

import "time"

// Access Token Response
type TokenResponse struct {
	AccessToken string    `json:"access"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int       `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        *User     `json:"user"`
}
