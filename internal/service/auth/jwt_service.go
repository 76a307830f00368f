// Package auth issues and validates the bearer tokens that guard the API.
package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing API bearer tokens.
type JWTService interface {
	// GenerateToken creates a signed access token for subject, the name of
	// the calling client.
	GenerateToken(ctx context.Context, subject string) (string, error)

	// ValidateToken validates the token string and returns its claims.
	// Returns ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims holds the validated contents of a token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
