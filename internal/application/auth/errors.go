package auth

import "errors"

// Messages are shown to users verbatim.
var (
	ErrEmailPasswordRequired = errors.New("Please enter email and password")
	ErrUserNotFound          = errors.New("There is no user record corresponding to this identifier.")
	ErrWrongPassword         = errors.New("The password is invalid.")
	ErrFieldsRequired        = errors.New("Please fill in all fields")
	ErrPasswordMismatch      = errors.New("Passwords do not match")
	ErrPasswordTooShort      = errors.New("Password must be at least 6 characters")
	ErrInvalidEmail          = errors.New("The email address is badly formatted.")
	ErrEmailInUse            = errors.New("The email address is already in use by another account.")
	ErrEmailRequired         = errors.New("Please enter your email")
	ErrInvalidResetToken     = errors.New("This password reset link is invalid or has expired.")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)

// IsValidationError reports whether err is a user-facing auth error rather than an infrastructure failure.
func IsValidationError(err error) bool {
	switch err {
	case ErrEmailPasswordRequired, ErrUserNotFound, ErrWrongPassword, ErrFieldsRequired,
		ErrPasswordMismatch, ErrPasswordTooShort, ErrInvalidEmail, ErrEmailInUse,
		ErrEmailRequired, ErrInvalidResetToken, ErrNotAuthenticated:
		return true
	}
	return false
}
