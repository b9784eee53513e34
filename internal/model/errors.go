package model

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("no such resource")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrProviderUnavailable = errors.New("playback provider unavailable")
	ErrInternal            = errors.New("internal error")
)
