package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// UpstreamError wraps any failure of the outbound completion call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return "upstream completion failed"
	}
	return fmt.Sprintf("upstream completion failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }
