// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrCityNotFound is wrapped by protocol failures where the upstream service
// answered but knows no such city.
var ErrCityNotFound = errors.New("city not found")

// Kind classifies resolver failures.
type Kind int

const (
	// KindUnknown is never produced by this package; it is what KindOf reports
	// for foreign errors.
	KindUnknown Kind = iota
	// KindTransport means no response was received.
	KindTransport
	// KindProtocol means the upstream answered with a non-success status.
	KindProtocol
	// KindMalformedPayload means the body lacked the expected shape.
	KindMalformedPayload
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindMalformedPayload:
		return "malformed_payload"
	default:
		return "unknown"
	}
}

// ResolveError is the error returned by every Resolver in this package.
type ResolveError struct {
	Kind    Kind
	Message string
	// StatusCode is the HTTP status when there was one.
	StatusCode int
	// Status is the upstream status text (e.g. Google's OVER_QUERY_LIMIT).
	Status string
	Err    error
}

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}

	return KindUnknown
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// IsProtocol reports whether err is a protocol failure.
func IsProtocol(err error) bool {
	return KindOf(err) == KindProtocol
}

// IsMalformedPayload reports whether err is a malformed payload failure.
func IsMalformedPayload(err error) bool {
	return KindOf(err) == KindMalformedPayload
}

// IsNotFound reports whether the upstream service does not know the city.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCityNotFound)
}

// IsRateLimited reports whether the upstream asked callers to slow down.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}

	var re *ResolveError
	if errors.As(err, &re) {
		return re.StatusCode == http.StatusTooManyRequests || re.Status == "OVER_QUERY_LIMIT"
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "over_query_limit")
}

// IsTimeout reports whether err comes from a deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

// ClassifyHTTPStatus maps a non-success HTTP status to a protocol failure.
func ClassifyHTTPStatus(statusCode int) *ResolveError {
	re := &ResolveError{Kind: KindProtocol, StatusCode: statusCode}

	switch statusCode {
	case http.StatusTooManyRequests: // 429
		re.Message = "rate limit reached"
	case http.StatusForbidden: // 403
		re.Message = "quota exceeded or access denied"
	case http.StatusUnauthorized: // 401
		re.Message = "credential rejected"
	case http.StatusBadRequest: // 400
		re.Message = "invalid request"
	case http.StatusNotFound: // 404
		re.Message = "not found"
		re.Err = ErrCityNotFound
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		re.Message = fmt.Sprintf("service unavailable (status %d)", statusCode)
	default:
		re.Message = fmt.Sprintf("HTTP error %d", statusCode)
	}

	return re
}

func transportError(err error) *ResolveError {
	return &ResolveError{Kind: KindTransport, Message: "request failed", Err: err}
}

func malformedError(msg string, err error) *ResolveError {
	return &ResolveError{Kind: KindMalformedPayload, Message: msg, Err: err}
}

func notFoundError(city string) *ResolveError {
	return &ResolveError{
		Kind:    KindProtocol,
		Message: fmt.Sprintf("resolving %q", city),
		Status:  "ZERO_RESULTS",
		Err:     ErrCityNotFound,
	}
}
