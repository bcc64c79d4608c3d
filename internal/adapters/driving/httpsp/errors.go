package httpsp

import "errors"

var (
	errEmptyLogoutRequest  = errors.New("empty logoutRequest document")
	errMissingSessionIndex = errors.New("logoutRequest has no SessionIndex")
)
