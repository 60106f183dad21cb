package auth

import "errors"

var (
	ErrInvalidState    = errors.New("auth: unknown or expired oauth state")
	ErrSessionNotFound = errors.New("auth: session not found")
	ErrTokenRefresh    = errors.New("auth: discord token refresh failed")
)
