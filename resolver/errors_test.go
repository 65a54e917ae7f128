// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	t.Helper()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindHelpers(t *testing.T) {
	transport := transportError(errors.New("connection refused"))
	protocol := ClassifyHTTPStatus(http.StatusBadGateway)
	malformed := malformedError("response is not JSON", nil)
	wrapped := fmt.Errorf("searching: %w", protocol)

	runErrorCheckTest(t, []errorCheckTestCase{
		{"transport", transport, true},
		{"protocol", protocol, false},
		{"plain error", errors.New("x"), false},
	}, IsTransport)

	runErrorCheckTest(t, []errorCheckTestCase{
		{"protocol", protocol, true},
		{"wrapped protocol", wrapped, true},
		{"malformed", malformed, false},
	}, IsProtocol)

	runErrorCheckTest(t, []errorCheckTestCase{
		{"malformed", malformed, true},
		{"transport", transport, false},
		{"nil", nil, false},
	}, IsMalformedPayload)

	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
	assert.Equal(t, "malformed_payload", KindOf(malformed).String())
}

func TestIsRateLimited(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"http 429", ClassifyHTTPStatus(http.StatusTooManyRequests), true},
		{"google status", &ResolveError{Kind: KindProtocol, Status: "OVER_QUERY_LIMIT"}, true},
		{"message", errors.New("Too Many Requests"), true},
		{"other status", ClassifyHTTPStatus(http.StatusForbidden), false},
		{"unrelated", errors.New("some other error"), false},
		{"nil", nil, false},
	}, IsRateLimited)
}

func TestIsTimeout(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"deadline", transportError(context.DeadlineExceeded), true},
		{"canceled", transportError(context.Canceled), false},
		{"nil", nil, false},
	}, IsTimeout)
}

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		code    int
		message string
	}{
		{http.StatusTooManyRequests, "rate limit reached"},
		{http.StatusForbidden, "quota exceeded or access denied"},
		{http.StatusUnauthorized, "credential rejected"},
		{http.StatusBadRequest, "invalid request"},
		{http.StatusServiceUnavailable, "service unavailable (status 503)"},
		{http.StatusTeapot, "HTTP error 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			re := ClassifyHTTPStatus(tt.code)
			assert.Equal(t, KindProtocol, re.Kind)
			assert.Equal(t, tt.code, re.StatusCode)
			assert.Equal(t, tt.message, re.Message)
		})
	}

	notFound := ClassifyHTTPStatus(http.StatusNotFound)
	assert.ErrorIs(t, notFound, ErrCityNotFound)
	assert.Equal(t, "not found: city not found", notFound.Error())
}
