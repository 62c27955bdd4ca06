package user

import "errors"

var (
	ErrNotFound            = errors.New("user not found")
	ErrEmailExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidInput        = errors.New("invalid user input")
	ErrAdminSignupDisabled = errors.New("admin self-registration is disabled")
)
