package auth

import "github.com/oftalmo/records/internal/apperr"

var (
	// Unknown user and wrong password share this value so callers cannot tell them apart.
	ErrInvalidCredentials = apperr.New(apperr.KindAuthentication, apperr.CodeAuthRequired, "Invalid username or password")
	ErrInvalidToken       = apperr.New(apperr.KindAuthentication, apperr.CodeInvalidToken, "Invalid or expired token")
)
