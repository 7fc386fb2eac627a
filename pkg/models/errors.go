package models

import (
	"fmt"
	"strings"
)

// ConfigError is raised for a malformed or incomplete configuration layer.
type ConfigError struct {
	Path string
	Msg  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration %s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid configuration %s: %s", e.Path, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ValidationError is raised when a resolved leaf configuration lacks required fields.
type ValidationError struct {
	Path     string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid test %s: %s", e.Path, strings.Join(e.Messages, ", "))
}

// ParseError is raised for a malformed request, response or expected body.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError wraps a failure of the transport that issues the request.
type TransportError struct {
	Path     string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request for %s to %s failed: %v", e.Path, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ConnectionError wraps a database failure during setup or teardown scripts.
type ConnectionError struct {
	Path     string
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database %s failed for %s: %v", e.Database, e.Path, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
