package errors

import "fmt"

// Error codes
const (
	CodeSiteUnreachable  = "SITE_UNREACHABLE"
	CodeUnsupportedSite  = "UNSUPPORTED_SITE"
	CodeNoStructuredData = "NO_STRUCTURED_DATA"
	CodeConversion       = "CONVERSION_ANOMALY"
	CodeValidation       = "VALIDATION_ERROR"
	CodeCache            = "CACHE_ERROR"
	CodeAPIError         = "API_ERROR"
)

type ScrapeError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *ScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

func NewScrapeError(message, code string, statusCode int, context map[string]any) *ScrapeError {
	return &ScrapeError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *ScrapeError) WithCause(cause error) *ScrapeError {
	e.Cause = cause
	return e
}

// Code extracts the scrape error code from any error in the chain, or "" if none.
func Code(err error) string {
	for err != nil {
		if se, ok := err.(interface{ scrapeCode() string }); ok {
			return se.scrapeCode()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

func (e *ScrapeError) scrapeCode() string { return e.Code }

type APIError struct {
	*ScrapeError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		ScrapeError: &ScrapeError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// SiteUnreachableError signals that no endpoint answered at the transport
// level. Terminal for the scrape request; the host may retry later.
type SiteUnreachableError struct {
	*ScrapeError
	Host string
}

func NewSiteUnreachableError(host string, cause error) *SiteUnreachableError {
	return &SiteUnreachableError{
		ScrapeError: &ScrapeError{
			Message:    fmt.Sprintf("site unreachable: %s", host),
			Code:       CodeSiteUnreachable,
			StatusCode: 503,
			Context:    map[string]any{"host": host},
			Cause:      cause,
		},
		Host: host,
	}
}

// UnsupportedSiteError signals that the host answered but no compatible
// MediaWiki API endpoint was found. Terminal, never retried.
type UnsupportedSiteError struct {
	*ScrapeError
	Host string
}

func NewUnsupportedSiteError(host string) *UnsupportedSiteError {
	return &UnsupportedSiteError{
		ScrapeError: &ScrapeError{
			Message:    fmt.Sprintf("no compatible MediaWiki API found for: %s", host),
			Code:       CodeUnsupportedSite,
			StatusCode: 404,
			Context:    map[string]any{"host": host},
		},
		Host: host,
	}
}

type ValidationError struct {
	*ScrapeError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		ScrapeError: &ScrapeError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*ScrapeError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		ScrapeError: &ScrapeError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}
