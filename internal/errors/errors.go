// Package errors provides custom error types for the voice chat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrRequestFailed    = errors.New("chat request failed")
	ErrNoBody           = errors.New("response has no body")
	ErrUnsupported      = errors.New("capability not supported")
	ErrPermissionDenied = errors.New("permission denied")
	ErrEngine           = errors.New("speech engine error")
	ErrAlreadyStopped   = errors.New("already stopped")
)

// Engine error codes reported by recognition engines.
const (
	CodeNoSpeech     = "no-speech"
	CodeAborted      = "aborted"
	CodeAudioCapture = "audio-capture"
	CodeNotAllowed   = "not-allowed"
	CodeNetwork      = "network"
)

// RequestError represents a failed POST to the chat endpoint.
// Error() returns Message verbatim.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return HTTPStatusMessage(e.StatusCode)
	}
	return e.Message
}

// Is allows comparison with sentinel errors
func (e *RequestError) Is(target error) bool {
	if target == ErrRequestFailed {
		return true
	}
	_, ok := target.(*RequestError)
	return ok
}

// NewRequestError creates a new RequestError. An empty message is replaced
// by the generic status message.
func NewRequestError(statusCode int, message string) *RequestError {
	if message == "" {
		message = HTTPStatusMessage(statusCode)
	}
	return &RequestError{StatusCode: statusCode, Message: message}
}

// HTTPStatusMessage is the message used when the server sends no error text.
func HTTPStatusMessage(status int) string {
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// CapabilityError is raised when a required engine is not available.
type CapabilityError struct {
	Capability string
	Message    string
}

func (e *CapabilityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is not supported", e.Capability)
}

// Is allows comparison with sentinel errors
func (e *CapabilityError) Is(target error) bool {
	if target == ErrUnsupported {
		return true
	}
	_, ok := target.(*CapabilityError)
	return ok
}

// NewCapabilityError creates a new CapabilityError
func NewCapabilityError(capability, message string) *CapabilityError {
	return &CapabilityError{Capability: capability, Message: message}
}

// PermissionError is raised when microphone access is refused.
type PermissionError struct {
	Message string
	Cause   error
}

func (e *PermissionError) Error() string {
	if e.Message == "" {
		return "permission denied"
	}
	return e.Message
}

func (e *PermissionError) Unwrap() error {
	return e.Cause
}

// Is allows comparison with sentinel errors
func (e *PermissionError) Is(target error) bool {
	if target == ErrPermissionDenied {
		return true
	}
	_, ok := target.(*PermissionError)
	return ok
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(message string, cause error) *PermissionError {
	return &PermissionError{Message: message, Cause: cause}
}

// EngineError is an error event emitted by a recognition engine.
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("speech engine error: %s", e.Code)
	}
	return fmt.Sprintf("speech engine error [%s]: %s", e.Code, e.Message)
}

// Is allows comparison with sentinel errors
func (e *EngineError) Is(target error) bool {
	if target == ErrEngine {
		return true
	}
	_, ok := target.(*EngineError)
	return ok
}

// Benign reports whether the error is an expected end of a session.
func (e *EngineError) Benign() bool {
	return e.Code == CodeNoSpeech || e.Code == CodeAborted
}

// Actionable reports whether the user must be told about the error.
func (e *EngineError) Actionable() bool {
	switch e.Code {
	case CodeAudioCapture, CodeNotAllowed, CodeNetwork:
		return true
	}
	return false
}

// NewEngineError creates a new EngineError
func NewEngineError(code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// IsRequestError checks if the error is a RequestError
func IsRequestError(err error) bool {
	var e *RequestError
	return errors.As(err, &e)
}

// IsCapabilityError checks if the error is a CapabilityError
func IsCapabilityError(err error) bool {
	var e *CapabilityError
	return errors.As(err, &e)
}

// IsPermissionError checks if the error is a PermissionError
func IsPermissionError(err error) bool {
	var e *PermissionError
	return errors.As(err, &e)
}

// IsEngineError checks if the error is an EngineError
func IsEngineError(err error) bool {
	var e *EngineError
	return errors.As(err, &e)
}

// GetHTTPStatus extracts the HTTP status code from a RequestError, or 0.
func GetHTTPStatus(err error) int {
	var e *RequestError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
