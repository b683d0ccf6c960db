package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotAuthorized   = errors.New("sender is not the configured admin")
	ErrGatewayFailure  = errors.New("media gateway call failed")
)
