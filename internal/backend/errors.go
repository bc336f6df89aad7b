package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnreachable matches any failure to reach the backend at the transport level
var ErrUnreachable = errors.New("backend unreachable")

// UnreachableError wraps a network or connection failure talking to the backend
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Op, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func (e *UnreachableError) Is(target error) bool { return target == ErrUnreachable }

// APIError is a non-2xx backend response. Message is the backend's own text.
type APIError struct {
	Status  int
	Message string
	Body    []byte
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError extracts the backend's message, preferring "message" over "error"
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		message = strings.TrimSpace(payload.Message)
		if message == "" {
			message = strings.TrimSpace(payload.Error)
		}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Status: status, Message: message, Body: body}
}

// envelopeRejection turns a 2xx body that still reads {"success": false}
// into an APIError carrying the backend's message
func envelopeRejection(status int, body []byte) *APIError {
	var envelope struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Success == nil || *envelope.Success {
		return nil
	}

	apiErr := newAPIError(status, body)
	if apiErr.Message == http.StatusText(status) {
		apiErr.Message = "Request failed"
	}
	return apiErr
}

// StatusOf returns the backend status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
