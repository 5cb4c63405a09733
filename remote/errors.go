package remote

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned before any network activity when a required
// connection parameter is missing.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing %s from connection configuration", e.Field)
}

// ConnectionError is returned when the session cannot be opened. Message holds
// every error met while trying, one per line.
type ConnectionError struct {
	Address string
	Message string
	err     error
}

func newConnectionError(address string, errs ...error) *ConnectionError {
	err := errors.Join(errs...)
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ConnectionError{
		Address: address,
		Message: message,
		err:     err,
	}
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to server %s: %s", e.Address, e.Message)
}

func (e *ConnectionError) Unwrap() error {
	return e.err
}
