package mw

import "errors"

var (
	errLimitExceeded   = errors.New("limit exceeded")
	errTooManyInflight = errors.New("too many uploads in progress")
)
