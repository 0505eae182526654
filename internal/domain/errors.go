package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidLicense   = errors.New("invalid license key")
	ErrQuotaExceeded    = errors.New("monthly quota exceeded")
	ErrGenerationFailed = errors.New("generation failed")
	ErrBatchNotFound    = errors.New("batch expired or not found")
	ErrMalformedRequest = errors.New("malformed request")
)
