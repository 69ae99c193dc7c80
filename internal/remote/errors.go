package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Class partitions remote failures by how the sync queue must react.
type Class string

const (
	// ClassNetwork covers transport failures: connection refused, timeout,
	// DNS. The queue goes offline and retries the operation later without
	// spending its retry budget.
	ClassNetwork Class = "network"
	// ClassAPI covers non-2xx responses with a service-supplied message.
	// Counted against the retry budget, then terminal.
	ClassAPI Class = "api"
	// ClassValidation covers malformed input: bad title, missing field,
	// invalid path. Never retried.
	ClassValidation Class = "validation"
)

// Error is the structured failure returned by every client operation.
type Error struct {
	Class   Class
	Status  int // HTTP status when Class == ClassAPI, else 0
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("remote: %s (%d): %s", e.Class, e.Status, e.Message)
	}
	return fmt.Sprintf("remote: %s: %s", e.Class, e.Message)
}

// ClassOf extracts the failure class from err, defaulting to ClassAPI for
// unrecognized errors so they stay within the retry budget.
func ClassOf(err error) Class {
	var re *Error
	if errors.As(err, &re) {
		return re.Class
	}
	if isNetworkErr(err) {
		return ClassNetwork
	}
	return ClassAPI
}

// IsNetwork reports whether err is a network-class failure.
func IsNetwork(err error) bool {
	return ClassOf(err) == ClassNetwork
}

// IsValidation reports whether err is a validation-class failure.
func IsValidation(err error) bool {
	return ClassOf(err) == ClassValidation
}

func isNetworkErr(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func networkError(err error) *Error {
	return &Error{Class: ClassNetwork, Message: err.Error()}
}

func validationError(msg string) *Error {
	return &Error{Class: ClassValidation, Message: msg}
}
