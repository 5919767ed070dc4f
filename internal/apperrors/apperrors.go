// internal/apperrors/apperrors.go
package apperrors

import "fmt"

// ConfigError indicates a required setting is missing or malformed.
// It is fatal to a sync run: nothing is executed when it is returned.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing or invalid configuration: %s", e.Setting)
}

// APIError carries a non-2xx status returned by the GitHub API.
type APIError struct {
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api returned status %d", e.Status)
}

// TransportError wraps a network-level failure (DNS, TLS, timeout).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("github request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError marks a malformed manifest, header block, or readme. It
// never aborts anything: callers treat it as "feature absent".
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps a local persistence failure during upsert. It is
// isolated per repository: the sync run counts it and continues.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
