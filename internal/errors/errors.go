package errors

import "errors"

// Credential errors
var (
	ErrNoIdentityToken = errors.New("no identity token stored")
	ErrNoRefreshToken  = errors.New("no refresh token stored")
)
