// Copyright 2025 The CrowdMap Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP transport chain used to talk to the
// places services.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"
)

const redacted = "REDACTED"

// SensitiveQueryParams are query parameters whose values never reach a trace.
var SensitiveQueryParams = []string{"key", "api_key"}

// SensitiveHeaders are headers whose values never reach a trace.
var SensitiveHeaders = []string{"Authorization", "X-Api-Key", "X-Goog-Api-Key"}

// LoggingRoundTripper dumps each request and response to Writer, with
// credentials masked. A nil Writer disables tracing.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// abbreviate prefixes every line and caps the number and width of lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = fmt.Sprintf("%c %s", prefix, line)
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = line
	}

	return lines
}

// RedactURL returns u as a string with sensitive query values masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	changed := false

	for _, name := range SensitiveQueryParams {
		if q.Has(name) {
			q.Set(name, redacted)

			changed = true
		}
	}

	if !changed {
		return u.String()
	}

	c := *u
	c.RawQuery = q.Encode()

	return c.String()
}

func redactRequest(req *http.Request) *http.Request {
	c := req.Clone(req.Context())
	c.URL.RawQuery = strings.TrimPrefix(RedactURL(&url.URL{RawQuery: req.URL.RawQuery}), "?")

	for _, h := range SensitiveHeaders {
		if c.Header.Get(h) != "" {
			c.Header.Set(h, redacted)
		}
	}

	return c
}

func (t *LoggingRoundTripper) write(lines []string) error {
	lines = append(lines, "")
	_, err := fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	// The body is never dumped on the way out: doing so would consume it.
	dump, err := httputil.DumpRequestOut(redactRequest(req), false)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	return t.write(abbreviate(strings.Split(string(dump), "\n"), '>'))
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration); err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	return t.write(abbreviate(strings.Split(string(dump), "\n"), '<'))
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		fmt.Fprintf(t.Writer, "< ERROR: [%v] %v\n", time.Since(start), err)

		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		resp.Body.Close()

		return nil, err
	}

	return resp, nil
}

// HeaderRoundTripper sets fixed headers on every outgoing request without
// mutating the caller's request.
type HeaderRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *HeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.Headers) == 0 {
		return t.Transport.RoundTrip(req)
	}

	c := req.Clone(req.Context())
	for k, v := range t.Headers {
		c.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(c)
}

// ClientOptions configures NewClient.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Headers are added to every request
	Headers map[string]string

	// Timeout bounds a whole request, body included
	Timeout time.Duration

	// Trace, when set, receives request/response dumps
	Trace io.Writer

	// Dump response bodies in traces
	TraceBody bool

	// Transport overrides the base transport, mostly for tests
	Transport http.RoundTripper
}

// NewClient builds an http.Client with the tracing and header transports.
func NewClient(opts ClientOptions) *http.Client {
	base := opts.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
		}
	}

	headers := map[string]string{"Accept": "application/json"}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	userAgent := "crowdmap/unknown"
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	headers["User-Agent"] = userAgent

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &HeaderRoundTripper{
			Headers: headers,
			Transport: &LoggingRoundTripper{
				Writer:    opts.Trace,
				DumpBody:  opts.TraceBody,
				Transport: base,
			},
		},
	}
}
