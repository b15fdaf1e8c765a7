package auth

import "errors"

var (
	// ErrInvalidInput marks malformed sign-in input, rejected before
	// any store lookup happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrWrongCredentials covers both unknown email and wrong password,
	// so callers cannot tell registered emails apart.
	ErrWrongCredentials = errors.New("wrong credentials")

	// ErrTokenInvalid marks a session token that is malformed, has a bad
	// signature, or is expired.
	ErrTokenInvalid = errors.New("token invalid")

	ErrAdminNotFound = errors.New("admin not found")
)
