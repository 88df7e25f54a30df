package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrMissingField  = errors.New("missing required attribute")
	ErrMalformedBody = errors.New("malformed request body")
	ErrConflict      = errors.New("conflict")
	ErrBackend       = errors.New("datastore unavailable")
)
