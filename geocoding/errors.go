// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ServiceError is a failure reported by a geocoding service.
type ServiceError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Err      error
}

// ErrorKind classifies service errors.
type ErrorKind int

const (
	// ErrorKindUnknown unknown error.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindRateLimit too many requests.
	ErrorKindRateLimit
	// ErrorKindQuotaExceeded quota exceeded or access denied.
	ErrorKindQuotaExceeded
	// ErrorKindTimeout connection timeout.
	ErrorKindTimeout
	// ErrorKindNotFound location not found.
	ErrorKindNotFound
	// ErrorKindInvalidRequest the service rejected the request.
	ErrorKindInvalidRequest
	// ErrorKindUnavailable the service is down.
	ErrorKindUnavailable
)

func (e *ServiceError) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is makes not-found service errors match ErrNotFound.
func (e *ServiceError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == ErrorKindNotFound
}

// IsRateLimitError reports whether err is a rate limit rejection.
func IsRateLimitError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == ErrorKindRateLimit
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests")
}

// IsQuotaExceededError reports whether err is a quota rejection.
func IsQuotaExceededError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind == ErrorKindQuotaExceeded
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Kind == ErrorKindTimeout {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps a non-200 response status to a service error.
func ClassifyHTTPError(provider string, statusCode int) *ServiceError {
	e := &ServiceError{Provider: provider}

	switch statusCode {
	case http.StatusTooManyRequests:
		e.Kind, e.Message = ErrorKindRateLimit, "rate limit reached"
	case http.StatusForbidden:
		e.Kind, e.Message = ErrorKindQuotaExceeded, "quota exceeded or access denied"
	case http.StatusBadRequest:
		e.Kind, e.Message = ErrorKindInvalidRequest, "invalid request"
	case http.StatusNotFound:
		e.Kind, e.Message = ErrorKindNotFound, "location not found"
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e.Kind, e.Message = ErrorKindTimeout, fmt.Sprintf("service timed out (status %d)", statusCode)
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		e.Kind, e.Message = ErrorKindUnavailable, fmt.Sprintf("service unavailable (status %d)", statusCode)
	default:
		e.Kind, e.Message = ErrorKindUnknown, fmt.Sprintf("HTTP error %d", statusCode)
	}

	return e
}

// classifyGoogleStatus maps a Google Maps API status to a service error.
func classifyGoogleStatus(provider, status, message string) *ServiceError {
	e := &ServiceError{Provider: provider, Message: status}
	if message != "" {
		e.Message = status + ": " + message
	}

	switch status {
	case "OVER_QUERY_LIMIT":
		e.Kind = ErrorKindQuotaExceeded
	case "REQUEST_DENIED", "INVALID_REQUEST":
		e.Kind = ErrorKindInvalidRequest
	case "UNKNOWN_ERROR":
		e.Kind = ErrorKindUnavailable
	default:
		e.Kind = ErrorKindUnknown
	}

	return e
}

// requestError wraps a transport failure. The request URL is dropped from
// *url.Error since it may carry credentials in its query string.
func requestError(provider string, err error) *ServiceError {
	e := &ServiceError{
		Kind:     ErrorKindUnknown,
		Provider: provider,
		Message:  "request failed",
		Err:      err,
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			e.Kind = ErrorKindTimeout
		}

		e.Err = urlErr.Err
	}

	return e
}
