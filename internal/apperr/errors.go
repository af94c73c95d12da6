// Package apperr holds the sentinel errors the request shell maps to status codes.
package apperr

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAnalysisFailed = errors.New("analysis failed")
	ErrPersist        = errors.New("persist failed")
)
