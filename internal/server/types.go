package server

import (
	"github.com/agbru/fxtree/internal/batch"
	"github.com/agbru/fxtree/internal/cli"
)

// ReduceRequest is the JSON body of POST /reduce.
type ReduceRequest struct {
	// InputWidth is the width of each input part. Zero selects the server default.
	InputWidth int `json:"input_width,omitempty"`
	// Backend is a backend spec. Empty selects the server default.
	Backend string `json:"backend,omitempty"`
	// Growth is "exact" or "linear".
	Growth string `json:"growth,omitempty"`
	// Overflow is "error" or "wrap".
	Overflow string `json:"overflow,omitempty"`
	// Inputs are the values to reduce, each [re, im] or "(re,im)".
	Inputs []batch.Literal `json:"inputs"`
	// Expected, if set, is compared against the result.
	Expected *batch.Literal `json:"expected,omitempty"`
}

// ReduceResponse is the JSON body of a successful POST /reduce.
type ReduceResponse struct {
	cli.Report
	// RequestID echoes the X-Request-ID of the request.
	RequestID string `json:"request_id"`
}

// ErrorResponse represents the standardized JSON response for an API error.
type ErrorResponse struct {
	// Error is the short error code or status text.
	Error string `json:"error"`
	// Message is a descriptive error message.
	Message string `json:"message,omitempty"`
	// RequestID identifies the failed request in the server log.
	RequestID string `json:"request_id,omitempty"`
}
