package model

import "time"

// Stable error codes carried by failed envelopes. These match the codes the
// live backend emits.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeValidationError = "VALIDATION_ERROR"
	CodeFileEmpty       = "FILE_EMPTY"
	CodeChatError       = "CHAT_ERROR"
	CodeUploadError     = "UPLOAD_ERROR"
	CodeListError       = "LIST_ERROR"
	CodeGetError        = "GET_ERROR"
	CodeDeleteError     = "DELETE_ERROR"
)

// ErrorInfo is the machine-readable error carried by a failed envelope.
// Code is stable (e.g. NOT_FOUND); Message is safe to show to an end user.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Empty is the payload type for operations that return no data.
type Empty struct{}

// Response is the uniform envelope wrapping every operation result.
// Data is present iff Success; Error is present iff not. Timestamp is the
// time the envelope was produced, not necessarily when the underlying
// operation completed.
type Response[T any] struct {
	Success   bool       `json:"success"`
	Data      *T         `json:"data,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T) *Response[T] {
	return &Response[T]{
		Success:   true,
		Data:      &data,
		Timestamp: time.Now(),
	}
}

// OKMessage wraps data in a successful envelope with a confirmation message.
func OKMessage[T any](data T, msg string) *Response[T] {
	resp := OK(data)
	resp.Message = msg
	return resp
}

// Done builds a successful envelope with no payload, for delete-style
// operations.
func Done(msg string) *Response[Empty] {
	return &Response[Empty]{
		Success:   true,
		Message:   msg,
		Timestamp: time.Now(),
	}
}

// Fail builds a failed envelope with a stable error code.
func Fail[T any](code, msg string) *Response[T] {
	return &Response[T]{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: msg,
		},
		Timestamp: time.Now(),
	}
}
