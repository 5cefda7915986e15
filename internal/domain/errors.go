package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a catalog entry, question or session does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnsupportedMediaType is returned when an uploaded artifact cannot be decoded by any adapter
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrDecodeFailure is returned when a decoder or the OCR engine fails on an artifact
	ErrDecodeFailure = errors.New("failed to decode document")

	// ErrNetwork is the parent of every webpage ingestion failure
	ErrNetwork = errors.New("network error")

	// ErrExternalService is returned when the LLM chat service fails
	ErrExternalService = errors.New("external service failure")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when a key is absent or expired in the key-value store
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidOTP is returned when the submitted one-time password does not match
	ErrInvalidOTP = errors.New("invalid one-time password")

	// ErrOTPExpired is returned when no live challenge exists for the identifier
	ErrOTPExpired = errors.New("one-time password expired or not requested")

	// ErrTooManyAttempts is returned when a challenge has been guessed too often
	ErrTooManyAttempts = errors.New("too many verification attempts")

	// ErrUnauthorized is returned when a session token is missing, unknown or expired
	ErrUnauthorized = errors.New("unauthorized")
)

// NetworkErrorKind classifies webpage fetch failures.
type NetworkErrorKind string

const (
	NetworkNotFound  NetworkErrorKind = "not_found"
	NetworkTimeout   NetworkErrorKind = "timeout"
	NetworkForbidden NetworkErrorKind = "forbidden"
	NetworkOther     NetworkErrorKind = "other"
)

// NetworkError is returned by the webpage fetcher. Each kind has its own user-facing message.
type NetworkError struct {
	Kind NetworkErrorKind
	URL  string
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error (%s) fetching %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("network error (%s) fetching %s", e.Kind, e.URL)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNetwork) match any NetworkError.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// UserMessage returns the message shown to admins in the upload UI.
func (e *NetworkError) UserMessage() string {
	switch e.Kind {
	case NetworkNotFound:
		return "Website not found. Please check the URL and try again."
	case NetworkTimeout:
		return "The website took too long to respond. Please try again later."
	case NetworkForbidden:
		return "Access to this website is blocked. Try uploading a saved copy or a screenshot instead."
	default:
		return "Failed to fetch the webpage. Please verify the URL is reachable."
	}
}
