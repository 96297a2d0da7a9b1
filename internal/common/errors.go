// Package common defines shared constants and sentinel errors used across
// client and server layers of CampusLink. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote transport errors, classified for retry decisions.
	ErrServerUnavailable = errors.New("server unavailable")
	ErrServerError       = errors.New("server error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnknownCollection = errors.New("unknown collection")

	// Sync-pass errors.
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrLocalStore         = errors.New("local store failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
