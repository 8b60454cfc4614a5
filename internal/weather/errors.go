package weather

import "errors"

var (
	// ErrNotConfigured means no API credential is available. Fatal and
	// non-retryable; callers should surface it as a blocking condition.
	ErrNotConfigured = errors.New("openweather api key is not configured")

	// ErrNetwork wraps transport-level failures with no provider body.
	ErrNetwork = errors.New("network error")

	// ErrCityNotFound is the distinguished provider rejection for an
	// unknown city name or id.
	ErrCityNotFound = errors.New("city not found")
)

// fallbackMessage is shown when the provider rejects a request without
// a usable message in the body.
const fallbackMessage = "Failed to load weather"

// ProviderError is a non-success response from the weather provider.
// The message is the human-readable text shown to the user.
type ProviderError struct {
	Code    string
	Message string

	notFound bool
}

func newProviderError(code, message string) *ProviderError {
	e := &ProviderError{Code: code, Message: message}
	if message == "city not found" {
		e.Message = "City not found"
		e.notFound = true
	}
	if e.Message == "" {
		e.Message = fallbackMessage
	}
	return e
}

func (e *ProviderError) Error() string { return e.Message }

func (e *ProviderError) Unwrap() error {
	if e.notFound {
		return ErrCityNotFound
	}
	return nil
}
