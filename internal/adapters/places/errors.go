package places

import "fmt"

// ConfigurationError is returned at construction when the provider cannot be
// used at all (missing API key, bad base URL).
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "places provider misconfigured: " + e.Msg
}

// HTTPStatusError carries a non-2xx response from the provider.
type HTTPStatusError struct {
	Code int
	Body string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// retryable reports whether a retry can help.
func (e *HTTPStatusError) retryable() bool {
	switch e.Code {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
