package search

import "fmt"

// ProviderTransportError is a network, timeout or HTTP-status failure for one query.
type ProviderTransportError struct {
	Provider   string
	Query      string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ProviderTransportError) Error() string {
	msg := fmt.Sprintf("%s transport error for %q: %s", e.Provider, e.Query, e.Message)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ProviderTransportError) Unwrap() error {
	return e.Cause
}

// ProviderDataError is a malformed or error-bearing response body for one query.
type ProviderDataError struct {
	Provider string
	Query    string
	Message  string
	Cause    error
}

func (e *ProviderDataError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s data error for %q: %s: %v", e.Provider, e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s data error for %q: %s", e.Provider, e.Query, e.Message)
}

func (e *ProviderDataError) Unwrap() error {
	return e.Cause
}
