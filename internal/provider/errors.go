package provider

import "fmt"

// TransientNetworkError wraps a connection-level failure or a server-side
// 5xx response. The request may succeed if repeated later.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// RateLimitError signals that the request budget of the current window is spent.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return "rate limit exceeded: " + e.Message
}

// TargetInaccessibleError means the listed account cannot be read
// (protected, suspended or gone). It yields no further candidates.
type TargetInaccessibleError struct {
	ExternalID int64
	Reason     string
}

func (e *TargetInaccessibleError) Error() string {
	return fmt.Sprintf("account %d inaccessible: %s", e.ExternalID, e.Reason)
}

// UnclassifiedProviderError is any provider failure not covered above.
type UnclassifiedProviderError struct {
	Status  int
	Code    int
	Message string
}

func (e *UnclassifiedProviderError) Error() string {
	return fmt.Sprintf("provider error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}
