package service

import "errors"

var (
	// ErrInvalidInput is returned when a request field cannot be parsed or is inconsistent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the actor may not operate on the requested company.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
