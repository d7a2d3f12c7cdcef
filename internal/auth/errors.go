package auth

import "errors"

var (
	// ErrBadCredentials covers both an unknown username and a wrong
	// password; callers must not distinguish the two outward.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrAccountLocked is returned before the password is ever checked.
	ErrAccountLocked = errors.New("account locked")

	// ErrAccountDisabled is returned for deactivated accounts.
	ErrAccountDisabled = errors.New("account disabled")

	ErrTokenExpired    = errors.New("token expired")
	ErrTokenInvalid    = errors.New("token invalid")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)
