package llm

import "fmt"

// APIError is a non-success response from a provider.
type APIError struct {
	Provider   Provider
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

// Unauthorized reports whether the provider rejected the credentials.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// MissingAPIKeyError is returned before any network call when a key-based
// provider has no key configured.
type MissingAPIKeyError struct {
	Provider Provider
}

func (e *MissingAPIKeyError) Error() string {
	return fmt.Sprintf("API key not configured for %s", e.Provider)
}

// EmptyResponseError is returned when a provider answers with no text.
type EmptyResponseError struct {
	Provider Provider
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty response from %s", e.Provider)
}
