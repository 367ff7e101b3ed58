package core

import "errors"

var (
	ErrMissingCredentials = errors.New("please enter both name and email")
	ErrUserNotFound       = errors.New("user not found")
	ErrTrialExpired       = errors.New("trial expired, please subscribe to continue")
	ErrStoreUnavailable   = errors.New("user store unavailable, please try again")
)
