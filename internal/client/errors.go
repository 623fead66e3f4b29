package client

import (
	"fmt"
	"strings"
)

// ValidationError is a rejected request, either by the local pre-submit
// checks or by the API (4xx other than 404).
type ValidationError struct {
	Field   string
	Message string
	// StatusCode is zero when the check failed before any request was sent.
	StatusCode int
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NotFoundError is returned when the API has no record with ID.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("expense %d not found", e.ID)
}

// TransportError covers everything that is not the caller's fault: the API
// is unreachable, timed out, rate limited or answered with a 5xx.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
