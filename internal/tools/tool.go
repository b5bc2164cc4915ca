// Package tools implements the deterministic tool backends the pipeline can
// route a question to: arithmetic evaluation and SQL over CSV-derived tables.
// Tool results are plain strings; a result starting with "ERROR:" marks a
// failed invocation that the pipeline absorbs rather than aborts on.
package tools

import (
	"context"
	"strings"
)

// ErrorPrefix tags a failed tool result.
const ErrorPrefix = "ERROR:"

// Tool is one deterministic backend. Invoke takes a JSON arguments object and
// always returns a string; failures are encoded with ErrorPrefix, never as a
// Go error, so a broken tool degrades the answer instead of the request.
type Tool interface {
	Name() string
	Invoke(ctx context.Context, argsJSON string) string
}

// Invocation records one timed tool call for the trace.
type Invocation struct {
	Name          string
	Ok            bool
	LatencyMillis float64
	Result        string
}

// IsError reports whether a tool result string marks a failure.
func IsError(result string) bool {
	return strings.HasPrefix(result, ErrorPrefix)
}
