package errors

import (
	stderrors "errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrorTypeSource ErrorType = iota
	ErrorTypeNetwork
	ErrorTypeNotFound
	ErrorTypeParse
	ErrorTypeValidation
	ErrorTypeStore
	ErrorTypeCache
	ErrorTypeConfig
	ErrorTypeUnknown
)

// String returns a short label used in logs
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeSource:
		return "source"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeParse:
		return "parse"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeStore:
		return "store"
	case ErrorTypeCache:
		return "cache"
	case ErrorTypeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// CatalogError represents a structured error with context and retry information
type CatalogError struct {
	Type       ErrorType
	Message    string
	Underlying error
	Retryable  bool
	RetryAfter time.Duration
	Context    map[string]string
}

// Error implements the error interface
func (e *CatalogError) Error() string {
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, ", "))
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *CatalogError) Unwrap() error {
	return e.Underlying
}

// IsRetryable returns whether this error can be retried
func (e *CatalogError) IsRetryable() bool {
	return e.Retryable
}

// GetRetryAfter returns the duration to wait before retrying
func (e *CatalogError) GetRetryAfter() time.Duration {
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	switch e.Type {
	case ErrorTypeNetwork:
		return 2 * time.Second
	case ErrorTypeStore:
		return 1 * time.Second
	default:
		return 0
	}
}

// WrapSourceError wraps a failure to open or decode an import source.
// Source errors abort the whole batch.
func WrapSourceError(err error, source string) *CatalogError {
	if err == nil {
		return nil
	}

	return &CatalogError{
		Type:       ErrorTypeSource,
		Message:    fmt.Sprintf("Import source unreadable: %s", cleanErrorOutput(err.Error())),
		Underlying: err,
		Retryable:  false,
		Context:    map[string]string{"source": source},
	}
}

// WrapNetworkError classifies an HTTP transport failure against a remote source
func WrapNetworkError(err error, url string) *CatalogError {
	if err == nil {
		return nil
	}

	context := map[string]string{"url": url}
	lowerError := strings.ToLower(err.Error())

	var netErr net.Error
	switch {
	case stderrors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(lowerError, "timeout") || strings.Contains(lowerError, "deadline"):
		return &CatalogError{
			Type:       ErrorTypeNetwork,
			Message:    "Remote source timed out",
			Underlying: err,
			Retryable:  true,
			RetryAfter: 5 * time.Second,
			Context:    context,
		}

	case strings.Contains(lowerError, "connection") || strings.Contains(lowerError, "no such host"):
		return &CatalogError{
			Type:       ErrorTypeNetwork,
			Message:    "Could not connect to remote source",
			Underlying: err,
			Retryable:  true,
			Context:    context,
		}

	default:
		return &CatalogError{
			Type:       ErrorTypeNetwork,
			Message:    fmt.Sprintf("Remote request failed: %s", cleanErrorOutput(err.Error())),
			Underlying: err,
			Retryable:  false,
			Context:    context,
		}
	}
}

// WrapHTTPStatus builds an error for a non-2xx response from a remote endpoint
func WrapHTTPStatus(status int, url string) *CatalogError {
	context := map[string]string{"url": url, "status": fmt.Sprintf("%d", status)}

	switch {
	case status == 401 || status == 403:
		return &CatalogError{
			Type:      ErrorTypeSource,
			Message:   "Remote source rejected the credentials - check the bearer token",
			Retryable: false,
			Context:   context,
		}
	case status == 404:
		return &CatalogError{
			Type:      ErrorTypeNotFound,
			Message:   "Remote source not found",
			Retryable: false,
			Context:   context,
		}
	case status == 429:
		return &CatalogError{
			Type:       ErrorTypeNetwork,
			Message:    "Remote source is rate limiting requests",
			Retryable:  true,
			RetryAfter: 30 * time.Second,
			Context:    context,
		}
	case status >= 500:
		return &CatalogError{
			Type:      ErrorTypeNetwork,
			Message:   "Remote source returned a server error",
			Retryable: true,
			Context:   context,
		}
	default:
		return &CatalogError{
			Type:      ErrorTypeSource,
			Message:   fmt.Sprintf("Remote source returned unexpected status %d", status),
			Retryable: false,
			Context:   context,
		}
	}
}

// WrapStoreError wraps a catalog store failure for a single record
func WrapStoreError(err error, operation, naturalKey string) *CatalogError {
	if err == nil {
		return nil
	}

	lowerError := strings.ToLower(err.Error())
	retryable := strings.Contains(lowerError, "locked") || strings.Contains(lowerError, "busy")

	return &CatalogError{
		Type:       ErrorTypeStore,
		Message:    fmt.Sprintf("Catalog %s failed: %s", operation, cleanErrorOutput(err.Error())),
		Underlying: err,
		Retryable:  retryable,
		Context:    map[string]string{"operation": operation, "natural_key": naturalKey},
	}
}

// WrapValidationError wraps validation errors
func WrapValidationError(err error, input string) *CatalogError {
	if err == nil {
		return nil
	}

	return &CatalogError{
		Type:       ErrorTypeValidation,
		Message:    fmt.Sprintf("Invalid input '%s': %s", input, err.Error()),
		Underlying: err,
		Retryable:  false,
		Context:    map[string]string{"input": input},
	}
}

// WrapConfigError wraps configuration loading errors
func WrapConfigError(err error, path string) *CatalogError {
	if err == nil {
		return nil
	}

	return &CatalogError{
		Type:       ErrorTypeConfig,
		Message:    fmt.Sprintf("Configuration invalid: %s", err.Error()),
		Underlying: err,
		Retryable:  false,
		Context:    map[string]string{"path": path},
	}
}

// cleanErrorOutput keeps the first meaningful line of an error message
func cleanErrorOutput(errorText string) string {
	cleaned := strings.TrimSpace(errorText)
	cleaned = strings.TrimPrefix(cleaned, "ERROR: ")

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}

	return cleaned
}

// UserFriendlyMessage returns a user-friendly error message
func (e *CatalogError) UserFriendlyMessage() string {
	switch e.Type {
	case ErrorTypeSource:
		return e.Message + " - check the file path or response format"
	case ErrorTypeNetwork:
		return e.Message + " - check your network connection and the source URL"
	case ErrorTypeNotFound:
		return e.Message + " - verify the URL or identifier"
	case ErrorTypeStore:
		return e.Message + " - check the catalog database"
	case ErrorTypeValidation:
		return e.Message
	case ErrorTypeConfig:
		return e.Message + " - see 'carcat config show'"
	default:
		return e.Message
	}
}
