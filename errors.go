package main

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds map one-to-one onto outward HTTP status classes. Internal
// detail (library errors, response bodies) stays in the wrapped cause and is
// never surfaced beyond a capped diagnostic preview.
type errorKind int

const (
	errInvalidInput errorKind = iota // unparseable or unsupported link
	errNotFound                      // no audio / no captions / no feed episodes
	errUpstream                      // non-success response, malformed payload, size limit
	errAuth                          // missing/invalid upstream credential
	errRateLimited                   // upstream throttling
)

type apiError struct {
	kind  errorKind
	msg   string
	cause error
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *apiError) Unwrap() error { return e.cause }

func (e *apiError) httpStatus() int {
	switch e.kind {
	case errInvalidInput:
		return http.StatusBadRequest
	case errNotFound:
		return http.StatusNotFound
	case errAuth:
		return http.StatusUnauthorized
	case errRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (e *apiError) code() string {
	switch e.kind {
	case errInvalidInput:
		return "invalid_input"
	case errNotFound:
		return "not_found"
	case errAuth:
		return "upstream_auth"
	case errRateLimited:
		return "rate_limited"
	default:
		return "upstream_unavailable"
	}
}

func invalidInput(format string, args ...interface{}) *apiError {
	return &apiError{kind: errInvalidInput, msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *apiError {
	return &apiError{kind: errNotFound, msg: fmt.Sprintf(format, args...)}
}

func upstream(format string, args ...interface{}) *apiError {
	return &apiError{kind: errUpstream, msg: fmt.Sprintf(format, args...)}
}

func upstreamWrap(err error, format string, args ...interface{}) *apiError {
	return &apiError{kind: errUpstream, msg: fmt.Sprintf(format, args...), cause: err}
}

func authError(format string, args ...interface{}) *apiError {
	return &apiError{kind: errAuth, msg: fmt.Sprintf(format, args...)}
}

func rateLimited(format string, args ...interface{}) *apiError {
	return &apiError{kind: errRateLimited, msg: fmt.Sprintf(format, args...)}
}

// asAPIError unwraps err into an *apiError, defaulting to an upstream error
// so unexpected failures never leak raw detail to the caller.
func asAPIError(err error) *apiError {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae
	}
	return &apiError{kind: errUpstream, msg: "upstream request failed", cause: err}
}

const maxDiagnosticPreview = 200

// previewBody truncates an upstream response body for diagnostics.
func previewBody(body []byte) string {
	s := string(body)
	if len(s) > maxDiagnosticPreview {
		return s[:maxDiagnosticPreview] + "..."
	}
	return s
}
