package trace

import "errors"

var (
	// ErrUpstreamUnavailable indicates the trace.moe API could not be reached
	// or answered with a non-2xx status.
	ErrUpstreamUnavailable = errors.New("connection to trace.moe API failed")
	// ErrMalformedResponse indicates the API body carried neither an error
	// nor a result key.
	ErrMalformedResponse = errors.New("malformed trace.moe API response")
)
