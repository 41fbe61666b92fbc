package db

import "errors"

// Sentinel errors for type-safe checks with errors.Is.
var (
	ErrUploadNotFound = errors.New("upload not found")
	ErrReportNotFound = errors.New("analytics report not found")
	ErrForbidden      = errors.New("forbidden")

	// ErrRateLimitExceeded is returned when a donor hits the weekly
	// upload quota.
	ErrRateLimitExceeded = errors.New("weekly upload limit exceeded")
)
